package util

import (
	"log"
	"os"
	"strconv"
)

// Graph entity labels. The allocator keeps one Counter node per label.
const (
	LabelClinic      = "Clinic"
	LabelDepartment  = "Department"
	LabelDoctor      = "Doctor"
	LabelPatient     = "Patient"
	LabelAppointment = "Appointment"
	LabelObservation = "Observation"
	LabelDiagnosis   = "Diagnosis"
	LabelMedicalFile = "MedicalFile"
)

// Messaging collections, 1:1 with the document-store entities.
const (
	UsersCollection         = "users"
	SessionsCollection      = "user_sessions"
	ConversationsCollection = "conversations"
	MessagesCollection      = "messages"
)

// Messaging account types.
const (
	UserTypeDoctor  = "doctor"
	UserTypePatient = "patient"
	UserTypeNurse   = "nurse"
)

// Message types.
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
)

const (
	DefaultSessionTTLHours  = 24
	DefaultMaxFileSizeBytes = 10 << 20 // 10 MiB
)

func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func GetEnvInt(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Println("Invalid value for", key, "- using default:", err)
		return fallback
	}
	return n
}
