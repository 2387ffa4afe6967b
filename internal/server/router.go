package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterConfig struct {
	AllowOrigins []string
}

// NewRouter wires middleware and routes.
func NewRouter(cfg RouterConfig, h *Handler, access *zap.Logger) *gin.Engine {
	if access == nil {
		access = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID(h.logger))
	r.Use(AccessLog(access))
	r.Use(CORS(cfg.AllowOrigins))

	r.GET("/health", h.Health)

	v1 := r.Group("/api/v1")
	{
		syllabi := v1.Group("/syllabi")
		{
			syllabi.POST("", h.UploadSyllabus)
			syllabi.POST("/text", h.ExtractText)
		}

		courses := v1.Group("/courses")
		{
			courses.GET("", h.ListCourses)
			courses.GET("/:code", h.GetCourse)
			courses.GET("/:code/exams", h.CourseExams)
			courses.GET("/:code/exams/export", h.ExportCourseExams)
		}
	}
	return r
}
