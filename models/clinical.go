package models

import "time"

// Clinical graph nodes. Every id is an integer handed out by the
// sequential allocator and is immutable after creation.

type Clinic struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type Department struct {
	ID       int64  `json:"id"`
	ClinicID int64  `json:"clinicId"`
	Name     string `json:"name"`
}

type Doctor struct {
	ID           int64  `json:"id"`
	DepartmentID int64  `json:"departmentId"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
}

type Patient struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type Appointment struct {
	ID        int64  `json:"id"`
	DoctorID  int64  `json:"doctorId"`
	PatientID int64  `json:"patientId"`
	Date      string `json:"date"`
}

type Observation struct {
	ID            int64  `json:"id"`
	AppointmentID int64  `json:"appointmentId"`
	Type          string `json:"type"`
	Description   string `json:"description"`
}

type Diagnosis struct {
	ID            int64  `json:"id"`
	ObservationID int64  `json:"observationId"`
	Description   string `json:"description"`
}

type MedicalFile struct {
	ID            int64     `json:"id"`
	ObservationID int64     `json:"observationId"`
	Filename      string    `json:"filename"`
	FileType      string    `json:"fileType"`
	FileSize      int64     `json:"fileSize"`
	FileData      []byte    `json:"fileData,omitempty"`
	UploadDate    time.Time `json:"uploadDate"`
	Description   string    `json:"description"`
}

// PatientAppointment is the joined row returned by the
// appointments-for-patient traversal: one round trip across
// Patient -> Appointment <- Doctor <- Department.
type PatientAppointment struct {
	AppointmentID   int64  `json:"appointmentId"`
	Date            string `json:"date"`
	DoctorFirstName string `json:"doctorFirstName"`
	DoctorLastName  string `json:"doctorLastName"`
	Department      string `json:"department"`
}

// DoctorAppointment is the doctor-side counterpart.
type DoctorAppointment struct {
	AppointmentID    int64  `json:"appointmentId"`
	Date             string `json:"date"`
	PatientFirstName string `json:"patientFirstName"`
	PatientLastName  string `json:"patientLastName"`
}

type PatientDiagnosis struct {
	DiagnosisID     int64  `json:"diagnosisId"`
	Description     string `json:"description"`
	ObservationID   int64  `json:"observationId"`
	ObservationType string `json:"observationType"`
	AppointmentID   int64  `json:"appointmentId"`
	AppointmentDate string `json:"appointmentDate"`
}
