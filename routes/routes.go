package routes

import (
	"github.com/gin-gonic/gin"
)

// Registrar is anything that can attach its route group to the engine.
type Registrar interface {
	Routes(r *gin.Engine)
}

func Routes(r *gin.Engine, registrars ...Registrar) {
	for _, registrar := range registrars {
		registrar.Routes(r)
	}
}
