package route

import (
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"selfiebox/controller"
)

type Controllers struct {
	Selfies *controller.SelfieController
	Diary   *controller.DiaryController
}

type StaticOptions struct {
	PublicDir string
	// UploadDir is served under /uploads when set (local storage only).
	UploadDir string
}

// Register mounts the API routes and the static front end on router.
func Register(router *gin.Engine, ctrl Controllers, static StaticOptions) {
	router.POST("/upload", ctrl.Selfies.UploadSelfie)
	router.GET("/selfies", ctrl.Selfies.ListSelfies)

	router.GET("/diary", ctrl.Diary.ListEntries)
	router.POST("/diary", ctrl.Diary.CreateEntry)

	if static.UploadDir != "" {
		router.Static("/uploads", static.UploadDir)
	}

	router.GET("/", func(c *gin.Context) {
		c.File(filepath.Join(static.PublicDir, "index.html"))
	})
	router.NoRoute(publicFiles(static.PublicDir))
}

// publicFiles serves any regular file under dir for paths no route claimed.
func publicFiles(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+c.Request.URL.Path)))
		if fi, err := os.Stat(name); err == nil && fi.Mode().IsRegular() {
			c.File(name)
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	}
}
