package services

import (
	"context"
	"fmt"
	"time"

	"ClinicLink360/models"
	"ClinicLink360/util"
)

// GraphStore is the clinical graph connection as the services consume
// it: one parameterized Cypher statement per call, each statement its
// own transaction.
type GraphStore interface {
	ExecWrite(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)
	ExecRead(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)
}

// ClinicalService owns the entity/relationship schema of the clinical
// graph. Every create allocates an id, then builds the node together
// with its owning relationship in a single write statement: if the
// parent does not exist the MATCH produces nothing and no node is left
// behind.
type ClinicalService struct {
	graph GraphStore
	ids   *IDAllocator
}

func NewClinicalService(graph GraphStore, ids *IDAllocator) *ClinicalService {
	return &ClinicalService{graph: graph, ids: ids}
}

const (
	createClinicCypher = `
CREATE (c:Clinic {id: $id, name: $name, address: $address})
RETURN c.id AS id`

	createDepartmentCypher = `
MATCH (c:Clinic {id: $clinicId})
CREATE (d:Department {id: $id, name: $name})<-[:HAS_DEPARTMENT]-(c)
RETURN d.id AS id`

	createDoctorCypher = `
MATCH (d:Department {id: $departmentId})
CREATE (doc:Doctor {id: $id, first_name: $firstName, last_name: $lastName})<-[:HAS_DOCTOR]-(d)
RETURN doc.id AS id`

	createPatientCypher = `
CREATE (p:Patient {id: $id, first_name: $firstName, last_name: $lastName})
RETURN p.id AS id`

	createTreatedPatientCypher = `
MATCH (doc:Doctor {id: $doctorId})
CREATE (p:Patient {id: $id, first_name: $firstName, last_name: $lastName})
MERGE (doc)-[:TREATS]->(p)
RETURN p.id AS id`

	createAppointmentCypher = `
MATCH (doc:Doctor {id: $doctorId}), (p:Patient {id: $patientId})
CREATE (a:Appointment {id: $id, date: $date})
MERGE (doc)-[:HAS_APPOINTMENT]->(a)
MERGE (p)-[:HAS_APPOINTMENT]->(a)
MERGE (doc)-[:TREATS]->(p)
RETURN a.id AS id`

	createObservationCypher = `
MATCH (a:Appointment {id: $appointmentId})
CREATE (o:Observation {id: $id, type: $type, description: $description})<-[:HAS_OBSERVATION]-(a)
RETURN o.id AS id`

	createDiagnosisCypher = `
MATCH (o:Observation {id: $observationId})
CREATE (x:Diagnosis {id: $id, description: $description})<-[:HAS_DIAGNOSIS]-(o)
RETURN x.id AS id`

	departmentsCypher = `
MATCH (d:Department)
RETURN d.id AS id, d.name AS name ORDER BY name`

	doctorsCypher = `
MATCH (doc:Doctor)
RETURN doc.id AS id, doc.first_name AS firstName, doc.last_name AS lastName
ORDER BY firstName, lastName`

	doctorsByDepartmentCypher = `
MATCH (:Department {id: $departmentId})-[:HAS_DOCTOR]->(doc:Doctor)
RETURN doc.id AS id, doc.first_name AS firstName, doc.last_name AS lastName
ORDER BY firstName, lastName`

	patientByNameCypher = `
MATCH (p:Patient {first_name: $firstName, last_name: $lastName})
RETURN p.id AS id, p.first_name AS firstName, p.last_name AS lastName
LIMIT 1`

	// Appointment dates are YYYY-MM-DD strings (enforced at creation),
	// so ORDER BY date is chronological.
	appointmentsForPatientCypher = `
MATCH (p:Patient {first_name: $firstName, last_name: $lastName})
OPTIONAL MATCH (p)-[:HAS_APPOINTMENT]->(a:Appointment)<-[:HAS_APPOINTMENT]-(d:Doctor)
OPTIONAL MATCH (d)<-[:HAS_DOCTOR]-(dept:Department)
RETURN a.id AS appointmentId, a.date AS date,
       d.first_name AS doctorFirstName, d.last_name AS doctorLastName,
       dept.name AS department
ORDER BY date`

	appointmentsForDoctorCypher = `
MATCH (d:Doctor {id: $doctorId})
OPTIONAL MATCH (d)-[:HAS_APPOINTMENT]->(a:Appointment)<-[:HAS_APPOINTMENT]-(p:Patient)
RETURN a.id AS appointmentId, a.date AS date,
       p.first_name AS patientFirstName, p.last_name AS patientLastName
ORDER BY date`

	observationsForAppointmentCypher = `
MATCH (a:Appointment {id: $appointmentId})
OPTIONAL MATCH (a)-[:HAS_OBSERVATION]->(o:Observation)
RETURN o.id AS id, o.type AS type, o.description AS description
ORDER BY id`

	diagnosesForPatientCypher = `
MATCH (p:Patient {id: $patientId})
OPTIONAL MATCH (p)-[:HAS_APPOINTMENT]->(a:Appointment)-[:HAS_OBSERVATION]->(o:Observation)-[:HAS_DIAGNOSIS]->(x:Diagnosis)
RETURN x.id AS diagnosisId, x.description AS description,
       o.id AS observationId, o.type AS observationType,
       a.id AS appointmentId, a.date AS appointmentDate
ORDER BY appointmentDate, diagnosisId`

	doctorsForPatientCypher = `
MATCH (p:Patient {id: $patientId})-[:HAS_APPOINTMENT]->(:Appointment)<-[:HAS_APPOINTMENT]-(d:Doctor)
RETURN DISTINCT d.id AS id, d.first_name AS firstName, d.last_name AS lastName
ORDER BY firstName, lastName`

	patientsForDoctorCypher = `
MATCH (d:Doctor {id: $doctorId})-[:HAS_APPOINTMENT]->(:Appointment)<-[:HAS_APPOINTMENT]-(p:Patient)
RETURN DISTINCT p.id AS id, p.first_name AS firstName, p.last_name AS lastName
ORDER BY firstName, lastName`
)

// createOwned runs a MATCH-parent-then-CREATE statement and translates
// "no row produced" into ErrNotFound for the missing parent. The
// already-allocated id is simply burned, never reused.
func (s *ClinicalService) createOwned(ctx context.Context, cypher string, params map[string]any) error {
	rows, err := s.graph.ExecWrite(ctx, cypher, params)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("owning entity: %w", util.ErrNotFound)
	}
	return nil
}

func (s *ClinicalService) CreateClinic(ctx context.Context, name, address string) (*models.Clinic, error) {
	id, err := s.ids.NextID(ctx, util.LabelClinic)
	if err != nil {
		return nil, err
	}
	if err := s.createOwned(ctx, createClinicCypher, map[string]any{
		"id": id, "name": name, "address": address,
	}); err != nil {
		return nil, err
	}
	return &models.Clinic{ID: id, Name: name, Address: address}, nil
}

func (s *ClinicalService) CreateDepartment(ctx context.Context, clinicID int64, name string) (*models.Department, error) {
	id, err := s.ids.NextID(ctx, util.LabelDepartment)
	if err != nil {
		return nil, err
	}
	if err := s.createOwned(ctx, createDepartmentCypher, map[string]any{
		"id": id, "clinicId": clinicID, "name": name,
	}); err != nil {
		return nil, err
	}
	return &models.Department{ID: id, ClinicID: clinicID, Name: name}, nil
}

func (s *ClinicalService) CreateDoctor(ctx context.Context, departmentID int64, firstName, lastName string) (*models.Doctor, error) {
	id, err := s.ids.NextID(ctx, util.LabelDoctor)
	if err != nil {
		return nil, err
	}
	if err := s.createOwned(ctx, createDoctorCypher, map[string]any{
		"id": id, "departmentId": departmentID, "firstName": firstName, "lastName": lastName,
	}); err != nil {
		return nil, err
	}
	return &models.Doctor{ID: id, DepartmentID: departmentID, FirstName: firstName, LastName: lastName}, nil
}

// CreatePatient optionally links the new patient to the doctor treating
// them. doctorID 0 creates an unlinked patient.
func (s *ClinicalService) CreatePatient(ctx context.Context, firstName, lastName string, doctorID int64) (*models.Patient, error) {
	id, err := s.ids.NextID(ctx, util.LabelPatient)
	if err != nil {
		return nil, err
	}
	params := map[string]any{"id": id, "firstName": firstName, "lastName": lastName}
	cypher := createPatientCypher
	if doctorID != 0 {
		cypher = createTreatedPatientCypher
		params["doctorId"] = doctorID
	}
	if err := s.createOwned(ctx, cypher, params); err != nil {
		return nil, err
	}
	return &models.Patient{ID: id, FirstName: firstName, LastName: lastName}, nil
}

// CreateAppointment requires the date in YYYY-MM-DD form so the stored
// strings sort chronologically.
func (s *ClinicalService) CreateAppointment(ctx context.Context, doctorID, patientID int64, date string) (*models.Appointment, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("date %q must be YYYY-MM-DD: %w", date, err)
	}
	id, err := s.ids.NextID(ctx, util.LabelAppointment)
	if err != nil {
		return nil, err
	}
	if err := s.createOwned(ctx, createAppointmentCypher, map[string]any{
		"id": id, "doctorId": doctorID, "patientId": patientID, "date": date,
	}); err != nil {
		return nil, err
	}
	return &models.Appointment{ID: id, DoctorID: doctorID, PatientID: patientID, Date: date}, nil
}

func (s *ClinicalService) CreateObservation(ctx context.Context, appointmentID int64, obsType, description string) (*models.Observation, error) {
	id, err := s.ids.NextID(ctx, util.LabelObservation)
	if err != nil {
		return nil, err
	}
	if err := s.createOwned(ctx, createObservationCypher, map[string]any{
		"id": id, "appointmentId": appointmentID, "type": obsType, "description": description,
	}); err != nil {
		return nil, err
	}
	return &models.Observation{ID: id, AppointmentID: appointmentID, Type: obsType, Description: description}, nil
}

func (s *ClinicalService) CreateDiagnosis(ctx context.Context, observationID int64, description string) (*models.Diagnosis, error) {
	id, err := s.ids.NextID(ctx, util.LabelDiagnosis)
	if err != nil {
		return nil, err
	}
	if err := s.createOwned(ctx, createDiagnosisCypher, map[string]any{
		"id": id, "observationId": observationID, "description": description,
	}); err != nil {
		return nil, err
	}
	return &models.Diagnosis{ID: id, ObservationID: observationID, Description: description}, nil
}

func (s *ClinicalService) Departments(ctx context.Context) ([]models.Department, error) {
	rows, err := s.graph.ExecRead(ctx, departmentsCypher, nil)
	if err != nil {
		return nil, err
	}
	departments := []models.Department{}
	for _, row := range rows {
		departments = append(departments, models.Department{
			ID:   asInt64(row["id"]),
			Name: asString(row["name"]),
		})
	}
	return departments, nil
}

func (s *ClinicalService) Doctors(ctx context.Context) ([]models.Doctor, error) {
	return s.doctorList(ctx, doctorsCypher, nil)
}

func (s *ClinicalService) DoctorsByDepartment(ctx context.Context, departmentID int64) ([]models.Doctor, error) {
	return s.doctorList(ctx, doctorsByDepartmentCypher, map[string]any{"departmentId": departmentID})
}

func (s *ClinicalService) DoctorsForPatient(ctx context.Context, patientID int64) ([]models.Doctor, error) {
	return s.doctorList(ctx, doctorsForPatientCypher, map[string]any{"patientId": patientID})
}

func (s *ClinicalService) doctorList(ctx context.Context, cypher string, params map[string]any) ([]models.Doctor, error) {
	rows, err := s.graph.ExecRead(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	doctors := []models.Doctor{}
	for _, row := range rows {
		doctors = append(doctors, models.Doctor{
			ID:        asInt64(row["id"]),
			FirstName: asString(row["firstName"]),
			LastName:  asString(row["lastName"]),
		})
	}
	return doctors, nil
}

func (s *ClinicalService) PatientsForDoctor(ctx context.Context, doctorID int64) ([]models.Patient, error) {
	rows, err := s.graph.ExecRead(ctx, patientsForDoctorCypher, map[string]any{"doctorId": doctorID})
	if err != nil {
		return nil, err
	}
	patients := []models.Patient{}
	for _, row := range rows {
		patients = append(patients, models.Patient{
			ID:        asInt64(row["id"]),
			FirstName: asString(row["firstName"]),
			LastName:  asString(row["lastName"]),
		})
	}
	return patients, nil
}

func (s *ClinicalService) PatientByName(ctx context.Context, firstName, lastName string) (*models.Patient, error) {
	rows, err := s.graph.ExecRead(ctx, patientByNameCypher, map[string]any{
		"firstName": firstName, "lastName": lastName,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("patient %s %s: %w", firstName, lastName, util.ErrNotFound)
	}
	return &models.Patient{
		ID:        asInt64(rows[0]["id"]),
		FirstName: asString(rows[0]["firstName"]),
		LastName:  asString(rows[0]["lastName"]),
	}, nil
}

/*
* Appointments for a patient in one round trip, joined with the doctor
* and the doctor's department. Unknown patient is NotFound; a known
* patient with no appointments is an empty, not-nil slice ordered by
* date ascending.
 */
func (s *ClinicalService) AppointmentsForPatient(ctx context.Context, firstName, lastName string) ([]models.PatientAppointment, error) {
	rows, err := s.graph.ExecRead(ctx, appointmentsForPatientCypher, map[string]any{
		"firstName": firstName, "lastName": lastName,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("patient %s %s: %w", firstName, lastName, util.ErrNotFound)
	}
	appointments := []models.PatientAppointment{}
	for _, row := range rows {
		if row["appointmentId"] == nil {
			continue
		}
		appointments = append(appointments, models.PatientAppointment{
			AppointmentID:   asInt64(row["appointmentId"]),
			Date:            asString(row["date"]),
			DoctorFirstName: asString(row["doctorFirstName"]),
			DoctorLastName:  asString(row["doctorLastName"]),
			Department:      asString(row["department"]),
		})
	}
	return appointments, nil
}

func (s *ClinicalService) AppointmentsForDoctor(ctx context.Context, doctorID int64) ([]models.DoctorAppointment, error) {
	rows, err := s.graph.ExecRead(ctx, appointmentsForDoctorCypher, map[string]any{"doctorId": doctorID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("doctor %d: %w", doctorID, util.ErrNotFound)
	}
	appointments := []models.DoctorAppointment{}
	for _, row := range rows {
		if row["appointmentId"] == nil {
			continue
		}
		appointments = append(appointments, models.DoctorAppointment{
			AppointmentID:    asInt64(row["appointmentId"]),
			Date:             asString(row["date"]),
			PatientFirstName: asString(row["patientFirstName"]),
			PatientLastName:  asString(row["patientLastName"]),
		})
	}
	return appointments, nil
}

func (s *ClinicalService) ObservationsForAppointment(ctx context.Context, appointmentID int64) ([]models.Observation, error) {
	rows, err := s.graph.ExecRead(ctx, observationsForAppointmentCypher, map[string]any{"appointmentId": appointmentID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("appointment %d: %w", appointmentID, util.ErrNotFound)
	}
	observations := []models.Observation{}
	for _, row := range rows {
		if row["id"] == nil {
			continue
		}
		observations = append(observations, models.Observation{
			ID:            asInt64(row["id"]),
			AppointmentID: appointmentID,
			Type:          asString(row["type"]),
			Description:   asString(row["description"]),
		})
	}
	return observations, nil
}

func (s *ClinicalService) DiagnosesForPatient(ctx context.Context, patientID int64) ([]models.PatientDiagnosis, error) {
	rows, err := s.graph.ExecRead(ctx, diagnosesForPatientCypher, map[string]any{"patientId": patientID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("patient %d: %w", patientID, util.ErrNotFound)
	}
	diagnoses := []models.PatientDiagnosis{}
	for _, row := range rows {
		if row["diagnosisId"] == nil {
			continue
		}
		diagnoses = append(diagnoses, models.PatientDiagnosis{
			DiagnosisID:     asInt64(row["diagnosisId"]),
			Description:     asString(row["description"]),
			ObservationID:   asInt64(row["observationId"]),
			ObservationType: asString(row["observationType"]),
			AppointmentID:   asInt64(row["appointmentId"]),
			AppointmentDate: asString(row["appointmentDate"]),
		})
	}
	return diagnoses, nil
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
