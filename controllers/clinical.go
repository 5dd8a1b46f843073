package controllers

import (
	"net/http"
	"strconv"

	"ClinicLink360/services"
	"ClinicLink360/util"

	"github.com/gin-gonic/gin"
)

type ClinicalController struct {
	clinical *services.ClinicalService
}

func NewClinicalController(clinical *services.ClinicalService) *ClinicalController {
	return &ClinicalController{clinical: clinical}
}

func (ct *ClinicalController) Routes(router *gin.Engine) {
	clinic := router.Group("/clinic")
	{
		clinic.POST("/create", ct.CreateClinic)
		clinic.POST("/department/create", ct.CreateDepartment)
		clinic.GET("/departments", ct.Departments)
	}
	doctor := router.Group("/doctor")
	{
		doctor.POST("/create", ct.CreateDoctor)
		doctor.GET("/fetchAll", ct.Doctors)
		doctor.GET("/byDepartment/:departmentId", ct.DoctorsByDepartment)
		doctor.GET("/:doctorId/appointments", ct.AppointmentsForDoctor)
		doctor.GET("/:doctorId/patients", ct.PatientsForDoctor)
	}
	patient := router.Group("/patient")
	{
		patient.POST("/create", ct.CreatePatient)
		patient.GET("/byName", ct.PatientByName)
		patient.GET("/appointments", ct.AppointmentsForPatient)
		patient.GET("/:patientId/doctors", ct.DoctorsForPatient)
		patient.GET("/:patientId/diagnoses", ct.DiagnosesForPatient)
	}
	appointment := router.Group("/appointment")
	{
		appointment.POST("/create", ct.CreateAppointment)
		appointment.GET("/:appointmentId/observations", ct.ObservationsForAppointment)
		appointment.POST("/observation/create", ct.CreateObservation)
		appointment.POST("/diagnosis/create", ct.CreateDiagnosis)
	}
}

func (ct *ClinicalController) CreateClinic(c *gin.Context) {
	var req struct {
		Name    string `json:"name" binding:"required"`
		Address string `json:"address"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	clinic, err := ct.clinical.CreateClinic(c.Request.Context(), req.Name, req.Address)
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(clinic))
}

func (ct *ClinicalController) CreateDepartment(c *gin.Context) {
	var req struct {
		ClinicID int64  `json:"clinicId" binding:"required"`
		Name     string `json:"name" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	department, err := ct.clinical.CreateDepartment(c.Request.Context(), req.ClinicID, req.Name)
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(department))
}

func (ct *ClinicalController) CreateDoctor(c *gin.Context) {
	var req struct {
		DepartmentID int64  `json:"departmentId" binding:"required"`
		FirstName    string `json:"firstName" binding:"required"`
		LastName     string `json:"lastName" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	doctor, err := ct.clinical.CreateDoctor(c.Request.Context(), req.DepartmentID, req.FirstName, req.LastName)
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(doctor))
}

func (ct *ClinicalController) CreatePatient(c *gin.Context) {
	var req struct {
		FirstName string `json:"firstName" binding:"required"`
		LastName  string `json:"lastName" binding:"required"`
		DoctorID  int64  `json:"doctorId"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	patient, err := ct.clinical.CreatePatient(c.Request.Context(), req.FirstName, req.LastName, req.DoctorID)
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(patient))
}

func (ct *ClinicalController) CreateAppointment(c *gin.Context) {
	var req struct {
		DoctorID  int64  `json:"doctorId" binding:"required"`
		PatientID int64  `json:"patientId" binding:"required"`
		Date      string `json:"date" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	appointment, err := ct.clinical.CreateAppointment(c.Request.Context(), req.DoctorID, req.PatientID, req.Date)
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(appointment))
}

func (ct *ClinicalController) CreateObservation(c *gin.Context) {
	var req struct {
		AppointmentID int64  `json:"appointmentId" binding:"required"`
		Type          string `json:"type" binding:"required"`
		Description   string `json:"description"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	observation, err := ct.clinical.CreateObservation(c.Request.Context(), req.AppointmentID, req.Type, req.Description)
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(observation))
}

func (ct *ClinicalController) CreateDiagnosis(c *gin.Context) {
	var req struct {
		ObservationID int64  `json:"observationId" binding:"required"`
		Description   string `json:"description" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	diagnosis, err := ct.clinical.CreateDiagnosis(c.Request.Context(), req.ObservationID, req.Description)
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(diagnosis))
}

func (ct *ClinicalController) Departments(c *gin.Context) {
	departments, err := ct.clinical.Departments(c.Request.Context())
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(departments))
}

func (ct *ClinicalController) Doctors(c *gin.Context) {
	doctors, err := ct.clinical.Doctors(c.Request.Context())
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(doctors))
}

func (ct *ClinicalController) DoctorsByDepartment(c *gin.Context) {
	departmentID, err := pathID(c, "departmentId")
	if err != nil {
		return
	}
	doctors, err := ct.clinical.DoctorsByDepartment(c.Request.Context(), departmentID)
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(doctors))
}

func (ct *ClinicalController) PatientByName(c *gin.Context) {
	patient, err := ct.clinical.PatientByName(c.Request.Context(), c.Query("firstName"), c.Query("lastName"))
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(patient))
}

func (ct *ClinicalController) AppointmentsForPatient(c *gin.Context) {
	appointments, err := ct.clinical.AppointmentsForPatient(c.Request.Context(), c.Query("firstName"), c.Query("lastName"))
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(appointments))
}

func (ct *ClinicalController) AppointmentsForDoctor(c *gin.Context) {
	doctorID, err := pathID(c, "doctorId")
	if err != nil {
		return
	}
	appointments, err := ct.clinical.AppointmentsForDoctor(c.Request.Context(), doctorID)
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(appointments))
}

func (ct *ClinicalController) DoctorsForPatient(c *gin.Context) {
	patientID, err := pathID(c, "patientId")
	if err != nil {
		return
	}
	doctors, err := ct.clinical.DoctorsForPatient(c.Request.Context(), patientID)
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(doctors))
}

func (ct *ClinicalController) PatientsForDoctor(c *gin.Context) {
	doctorID, err := pathID(c, "doctorId")
	if err != nil {
		return
	}
	patients, err := ct.clinical.PatientsForDoctor(c.Request.Context(), doctorID)
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(patients))
}

func (ct *ClinicalController) ObservationsForAppointment(c *gin.Context) {
	appointmentID, err := pathID(c, "appointmentId")
	if err != nil {
		return
	}
	observations, err := ct.clinical.ObservationsForAppointment(c.Request.Context(), appointmentID)
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(observations))
}

func (ct *ClinicalController) DiagnosesForPatient(c *gin.Context) {
	patientID, err := pathID(c, "patientId")
	if err != nil {
		return
	}
	diagnoses, err := ct.clinical.DiagnosesForPatient(c.Request.Context(), patientID)
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(diagnoses))
}

// pathID parses an integer id path parameter, writing the error
// response itself when the value is not a number.
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return 0, err
	}
	return id, nil
}
