package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"ClinicLink360/models"
	"ClinicLink360/util"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeGraph is an in-memory stand-in for the graph store. It recognizes
// the exact statements the services issue and applies their effects to
// plain maps, including the zero-rows behavior when an owning entity is
// missing.
type fakeGraph struct {
	mu        sync.Mutex
	counters  map[string]int64
	conflicts map[string]int

	clinics      map[int64]map[string]any
	departments  map[int64]map[string]any
	doctors      map[int64]map[string]any
	patients     map[int64]map[string]any
	appointments map[int64]map[string]any
	observations map[int64]map[string]any
	diagnoses    map[int64]map[string]any
	files        map[int64]map[string]any
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		counters:     map[string]int64{},
		conflicts:    map[string]int{},
		clinics:      map[int64]map[string]any{},
		departments:  map[int64]map[string]any{},
		doctors:      map[int64]map[string]any{},
		patients:     map[int64]map[string]any{},
		appointments: map[int64]map[string]any{},
		observations: map[int64]map[string]any{},
		diagnoses:    map[int64]map[string]any{},
		files:        map[int64]map[string]any{},
	}
}

func (g *fakeGraph) IncrementCounter(_ context.Context, label string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.conflicts[label] > 0 {
		g.conflicts[label]--
		return 0, util.ErrAllocationConflict
	}
	g.counters[label]++
	return g.counters[label], nil
}

func (g *fakeGraph) ExecWrite(_ context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, _ := params["id"].(int64)
	switch cypher {
	case createClinicCypher:
		g.clinics[id] = clone(params)
	case createDepartmentCypher:
		if _, ok := g.clinics[params["clinicId"].(int64)]; !ok {
			return nil, nil
		}
		g.departments[id] = clone(params)
	case createDoctorCypher:
		if _, ok := g.departments[params["departmentId"].(int64)]; !ok {
			return nil, nil
		}
		g.doctors[id] = clone(params)
	case createPatientCypher:
		g.patients[id] = clone(params)
	case createTreatedPatientCypher:
		if _, ok := g.doctors[params["doctorId"].(int64)]; !ok {
			return nil, nil
		}
		g.patients[id] = clone(params)
	case createAppointmentCypher:
		_, hasDoc := g.doctors[params["doctorId"].(int64)]
		_, hasPat := g.patients[params["patientId"].(int64)]
		if !hasDoc || !hasPat {
			return nil, nil
		}
		g.appointments[id] = clone(params)
	case createObservationCypher:
		if _, ok := g.appointments[params["appointmentId"].(int64)]; !ok {
			return nil, nil
		}
		g.observations[id] = clone(params)
	case createDiagnosisCypher:
		if _, ok := g.observations[params["observationId"].(int64)]; !ok {
			return nil, nil
		}
		g.diagnoses[id] = clone(params)
	case storeFileCypher:
		if _, ok := g.observations[params["observationId"].(int64)]; !ok {
			return nil, nil
		}
		g.files[id] = clone(params)
	case deleteFileCypher:
		if _, ok := g.files[id]; !ok {
			return nil, nil
		}
		delete(g.files, id)
		return []map[string]any{{"deleted": int64(1)}}, nil
	default:
		return nil, fmt.Errorf("unexpected write statement: %s", cypher)
	}
	return []map[string]any{{"id": id}}, nil
}

func (g *fakeGraph) ExecRead(_ context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch cypher {
	case departmentsCypher:
		rows := []map[string]any{}
		for id, d := range g.departments {
			rows = append(rows, map[string]any{"id": id, "name": d["name"]})
		}
		sortRowsByString(rows, "name")
		return rows, nil

	case doctorsCypher:
		return g.doctorRows(func(map[string]any) bool { return true }), nil

	case doctorsByDepartmentCypher:
		want := params["departmentId"].(int64)
		return g.doctorRows(func(d map[string]any) bool { return d["departmentId"] == want }), nil

	case doctorsForPatientCypher:
		want := params["patientId"].(int64)
		seen := map[int64]bool{}
		rows := []map[string]any{}
		for _, a := range g.appointments {
			if a["patientId"] != want {
				continue
			}
			docID := a["doctorId"].(int64)
			if seen[docID] {
				continue
			}
			seen[docID] = true
			d := g.doctors[docID]
			rows = append(rows, map[string]any{"id": docID, "firstName": d["firstName"], "lastName": d["lastName"]})
		}
		sortRowsByString(rows, "firstName")
		return rows, nil

	case patientsForDoctorCypher:
		want := params["doctorId"].(int64)
		seen := map[int64]bool{}
		rows := []map[string]any{}
		for _, a := range g.appointments {
			if a["doctorId"] != want {
				continue
			}
			patID := a["patientId"].(int64)
			if seen[patID] {
				continue
			}
			seen[patID] = true
			p := g.patients[patID]
			rows = append(rows, map[string]any{"id": patID, "firstName": p["firstName"], "lastName": p["lastName"]})
		}
		sortRowsByString(rows, "firstName")
		return rows, nil

	case patientByNameCypher:
		if id, p := g.patientByName(params); p != nil {
			return []map[string]any{{"id": id, "firstName": p["firstName"], "lastName": p["lastName"]}}, nil
		}
		return nil, nil

	case appointmentsForPatientCypher:
		patID, p := g.patientByName(params)
		if p == nil {
			return nil, nil
		}
		rows := []map[string]any{}
		for aid, a := range g.appointments {
			if a["patientId"] != patID {
				continue
			}
			doc := g.doctors[a["doctorId"].(int64)]
			dept := g.departments[doc["departmentId"].(int64)]
			rows = append(rows, map[string]any{
				"appointmentId":   aid,
				"date":            a["date"],
				"doctorFirstName": doc["firstName"],
				"doctorLastName":  doc["lastName"],
				"department":      dept["name"],
			})
		}
		if len(rows) == 0 {
			return []map[string]any{{"appointmentId": nil}}, nil
		}
		sortRowsByString(rows, "date")
		return rows, nil

	case appointmentsForDoctorCypher:
		docID := params["doctorId"].(int64)
		if _, ok := g.doctors[docID]; !ok {
			return nil, nil
		}
		rows := []map[string]any{}
		for aid, a := range g.appointments {
			if a["doctorId"] != docID {
				continue
			}
			p := g.patients[a["patientId"].(int64)]
			rows = append(rows, map[string]any{
				"appointmentId":    aid,
				"date":             a["date"],
				"patientFirstName": p["firstName"],
				"patientLastName":  p["lastName"],
			})
		}
		if len(rows) == 0 {
			return []map[string]any{{"appointmentId": nil}}, nil
		}
		sortRowsByString(rows, "date")
		return rows, nil

	case observationsForAppointmentCypher:
		aid := params["appointmentId"].(int64)
		if _, ok := g.appointments[aid]; !ok {
			return nil, nil
		}
		rows := []map[string]any{}
		for oid, o := range g.observations {
			if o["appointmentId"] != aid {
				continue
			}
			rows = append(rows, map[string]any{"id": oid, "type": o["type"], "description": o["description"]})
		}
		if len(rows) == 0 {
			return []map[string]any{{"id": nil}}, nil
		}
		sortRowsByInt(rows, "id")
		return rows, nil

	case diagnosesForPatientCypher:
		patID := params["patientId"].(int64)
		if _, ok := g.patients[patID]; !ok {
			return nil, nil
		}
		rows := []map[string]any{}
		for did, dg := range g.diagnoses {
			o := g.observations[dg["observationId"].(int64)]
			a := g.appointments[o["appointmentId"].(int64)]
			if a["patientId"] != patID {
				continue
			}
			rows = append(rows, map[string]any{
				"diagnosisId":     did,
				"description":     dg["description"],
				"observationId":   o["id"],
				"observationType": o["type"],
				"appointmentId":   a["id"],
				"appointmentDate": a["date"],
			})
		}
		if len(rows) == 0 {
			return []map[string]any{{"diagnosisId": nil}}, nil
		}
		sortRowsByInt(rows, "diagnosisId")
		return rows, nil

	case retrieveFileCypher:
		f, ok := g.files[params["id"].(int64)]
		if !ok {
			return nil, nil
		}
		return []map[string]any{fileRow(f, true)}, nil

	case filesByObservationCypher:
		obsID := params["observationId"].(int64)
		if _, ok := g.observations[obsID]; !ok {
			return nil, nil
		}
		rows := []map[string]any{}
		for _, f := range g.files {
			if f["observationId"] != obsID {
				continue
			}
			rows = append(rows, fileRow(f, false))
		}
		if len(rows) == 0 {
			return []map[string]any{{"id": nil}}, nil
		}
		return rows, nil

	case listFilesCypher:
		rows := []map[string]any{}
		for _, f := range g.files {
			rows = append(rows, fileRow(f, false))
		}
		return rows, nil

	case fmt.Sprintf(existsByLabelCypher, util.LabelDoctor):
		if _, ok := g.doctors[params["id"].(int64)]; ok {
			return []map[string]any{{"id": params["id"]}}, nil
		}
		return nil, nil

	case fmt.Sprintf(existsByLabelCypher, util.LabelPatient):
		if _, ok := g.patients[params["id"].(int64)]; ok {
			return []map[string]any{{"id": params["id"]}}, nil
		}
		return nil, nil
	}
	return nil, fmt.Errorf("unexpected read statement: %s", cypher)
}

func (g *fakeGraph) doctorRows(keep func(map[string]any) bool) []map[string]any {
	rows := []map[string]any{}
	for id, d := range g.doctors {
		if !keep(d) {
			continue
		}
		rows = append(rows, map[string]any{"id": id, "firstName": d["firstName"], "lastName": d["lastName"]})
	}
	sortRowsByString(rows, "firstName")
	return rows
}

func (g *fakeGraph) patientByName(params map[string]any) (int64, map[string]any) {
	for id, p := range g.patients {
		if p["firstName"] == params["firstName"] && p["lastName"] == params["lastName"] {
			return id, p
		}
	}
	return 0, nil
}

func fileRow(f map[string]any, withPayload bool) map[string]any {
	row := map[string]any{
		"id":            f["id"],
		"filename":      f["filename"],
		"fileType":      f["fileType"],
		"fileSize":      f["fileSize"],
		"uploadDate":    f["uploadDate"],
		"description":   f["description"],
		"observationId": f["observationId"],
	}
	if withPayload {
		row["fileData"] = f["fileData"]
	}
	return row
}

func clone(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortRowsByString(rows []map[string]any, key string) {
	sort.Slice(rows, func(i, j int) bool {
		return rows[i][key].(string) < rows[j][key].(string)
	})
}

func sortRowsByInt(rows []map[string]any, key string) {
	sort.Slice(rows, func(i, j int) bool {
		return rows[i][key].(int64) < rows[j][key].(int64)
	})
}

// fakeAccounts is an in-memory users collection.
type fakeAccounts struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{users: map[string]*models.User{}}
}

func (f *fakeAccounts) InsertUser(_ context.Context, user *models.User) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == user.Username {
			return "", util.ErrUsernameTaken
		}
	}
	u := *user
	u.ID = primitive.NewObjectID()
	f.users[u.ID.Hex()] = &u
	return u.ID.Hex(), nil
}

func (f *fakeAccounts) UserByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username && u.IsActive {
			out := *u
			return &out, nil
		}
	}
	return nil, util.ErrNotFound
}

func (f *fakeAccounts) UserByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		out := *u
		return &out, nil
	}
	return nil, util.ErrNotFound
}

func (f *fakeAccounts) UserByExternal(_ context.Context, userType string, externalID int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.UserType == userType && u.ExternalID == externalID {
			out := *u
			return &out, nil
		}
	}
	return nil, util.ErrNotFound
}

func (f *fakeAccounts) UpdateUser(_ context.Context, id string, set map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return util.ErrNotFound
	}
	for k, v := range set {
		switch k {
		case "username":
			u.Username = v.(string)
		case "first_name":
			u.FirstName = v.(string)
		case "last_name":
			u.LastName = v.(string)
		case "is_active":
			u.IsActive = v.(bool)
		case "password_hash":
			u.PasswordHash = v.([]byte)
		case "profile_image":
			u.ProfileImage = v.([]byte)
		case "profile_image_mime":
			u.ProfileImageMime = v.(string)
		}
	}
	return nil
}

func (f *fakeAccounts) SearchUsers(_ context.Context, query, userType string, limit int64) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.User{}
	for _, u := range f.users {
		if userType != "" && u.UserType != userType {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(u.Username), strings.ToLower(query)) {
			continue
		}
		out = append(out, *u)
		if int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

// fakeSessions is an in-memory user_sessions collection.
type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]*models.Session{}}
}

func (f *fakeSessions) InsertSession(_ context.Context, session *models.Session) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := *session
	s.ID = primitive.NewObjectID()
	f.sessions[s.ID.Hex()] = &s
	return s.ID.Hex(), nil
}

func (f *fakeSessions) SessionByID(_ context.Context, id string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[id]; ok {
		out := *s
		return &out, nil
	}
	return nil, util.ErrNotFound
}

func (f *fakeSessions) DeleteSession(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[id]; !ok {
		return util.ErrNotFound
	}
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessions) DeleteExpiredSessions(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for id, s := range f.sessions {
		if s.ExpiresAt.Before(before) {
			delete(f.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

// fakeConversations is an in-memory conversations/messages store with
// the same single-document update semantics as the real one.
type fakeConversations struct {
	mu       sync.Mutex
	convs    map[string]*models.Conversation
	messages []*models.Message
}

func newFakeConversations() *fakeConversations {
	return &fakeConversations{convs: map[string]*models.Conversation{}}
}

func (f *fakeConversations) ConversationByPair(_ context.Context, a, b string) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.convs {
		has := map[string]bool{}
		for _, p := range c.Participants {
			has[p] = true
		}
		if has[a] && has[b] {
			out := *c
			return &out, nil
		}
	}
	return nil, util.ErrNotFound
}

func (f *fakeConversations) InsertConversation(_ context.Context, conv *models.Conversation) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fakePairKey(conv.Participants[0], conv.Participants[1])
	for _, existing := range f.convs {
		if existing.PairKey == key {
			return "", util.ErrDuplicateRecord
		}
	}
	c := *conv
	c.ID = primitive.NewObjectID()
	c.PairKey = key
	c.Unread = map[string]int64{}
	for k, v := range conv.Unread {
		c.Unread[k] = v
	}
	f.convs[c.ID.Hex()] = &c
	return c.ID.Hex(), nil
}

func fakePairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

func (f *fakeConversations) ConversationByID(_ context.Context, id string) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.convs[id]; ok {
		out := *c
		return &out, nil
	}
	return nil, util.ErrNotFound
}

func (f *fakeConversations) ConversationsForUser(_ context.Context, userID string) ([]models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Conversation{}
	for _, c := range f.convs {
		for _, p := range c.Participants {
			if p == userID {
				out = append(out, *c)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	return out, nil
}

func (f *fakeConversations) InsertMessage(_ context.Context, msg *models.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := *msg
	m.ID = primitive.NewObjectID()
	f.messages = append(f.messages, &m)
	return m.ID.Hex(), nil
}

func (f *fakeConversations) MessagesForConversation(_ context.Context, conversationID string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Message{}
	for _, m := range f.messages {
		if m.ConversationID == conversationID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// RecordSend and MarkRead recount from the message flags like the real
// store does, never increment blindly.
func (f *fakeConversations) RecordSend(_ context.Context, conversationID, recipientID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.convs[conversationID]
	if !ok {
		return util.ErrNotFound
	}
	var total, unread int64
	for _, m := range f.messages {
		if m.ConversationID != conversationID {
			continue
		}
		total++
		if m.SenderID != recipientID && !m.IsRead {
			unread++
		}
	}
	c.MessageCount = total
	c.Unread[recipientID] = unread
	c.LastActivity = at
	return nil
}

func (f *fakeConversations) MarkRead(_ context.Context, conversationID, readerID string, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.convs[conversationID]
	if !ok {
		return 0, util.ErrNotFound
	}
	var marked int64
	for _, m := range f.messages {
		if m.ConversationID == conversationID && m.SenderID != readerID && !m.IsRead {
			m.IsRead = true
			m.ReadAt = at
			marked++
		}
	}
	c.Unread[readerID] = 0
	return marked, nil
}

func (f *fakeConversations) UnreadTotal(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total int64
	for _, c := range f.convs {
		for _, p := range c.Participants {
			if p == userID {
				total += c.Unread[userID]
				break
			}
		}
	}
	return total, nil
}
