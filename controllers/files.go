package controllers

import (
	"io"
	"net/http"
	"strconv"

	"ClinicLink360/services"
	"ClinicLink360/util"

	"github.com/gin-gonic/gin"
)

type FilesController struct {
	files *services.FileService
}

func NewFilesController(files *services.FileService) *FilesController {
	return &FilesController{files: files}
}

func (ct *FilesController) Routes(router *gin.Engine) {
	files := router.Group("/files")
	{
		files.POST("/upload", ct.Upload)
		files.GET("/fetchAll", ct.List)
		files.GET("/byObservation/:observationId", ct.ByObservation)
		files.GET("/download/:fileId", ct.Download)
		files.DELETE("/delete/:fileId", ct.Delete)
	}
}

// Upload takes a multipart form: file, observationId, description.
func (ct *FilesController) Upload(c *gin.Context) {
	observationID, err := strconv.ParseInt(c.PostForm("observationId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	src, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	defer src.Close()
	payload, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}

	fileID, err := ct.files.StoreFile(c.Request.Context(), observationID,
		header.Filename, header.Header.Get("Content-Type"), payload, c.PostForm("description"))
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(gin.H{"fileId": fileID}))
}

func (ct *FilesController) Download(c *gin.Context) {
	fileID, err := pathID(c, "fileId")
	if err != nil {
		return
	}
	file, err := ct.files.RetrieveFile(c.Request.Context(), fileID)
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(file.Filename))
	c.Data(http.StatusOK, file.FileType, file.FileData)
}

func (ct *FilesController) Delete(c *gin.Context) {
	fileID, err := pathID(c, "fileId")
	if err != nil {
		return
	}
	if err := ct.files.DeleteFile(c.Request.Context(), fileID); err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse("file deleted"))
}

func (ct *FilesController) ByObservation(c *gin.Context) {
	observationID, err := pathID(c, "observationId")
	if err != nil {
		return
	}
	files, err := ct.files.FilesByObservation(c.Request.Context(), observationID)
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(files))
}

func (ct *FilesController) List(c *gin.Context) {
	files, err := ct.files.ListFiles(c.Request.Context())
	if err != nil {
		c.JSON(util.StatusFor(err), util.FailedResponse(err))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(files))
}
