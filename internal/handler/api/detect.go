package api

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

// DetectionPaths are the OS connectivity probes that must land on the portal.
var DetectionPaths = []string{
	"/generate_204",              // Android
	"/gen_204",                   // Android alternative
	"/connecttest.txt",           // Windows
	"/ncsi.txt",                  // Windows alternative
	"/hotspot-detect.html",       // Apple iOS/macOS
	"/library/test/success.html", // Apple alternative
	"/success.txt",               // Firefox
}

// DetectHandler answers captive-portal probes with a redirect to the
// authorization form, preserving the probed URL as the continue parameter.
type DetectHandler struct{}

func NewDetectHandler() *DetectHandler {
	return &DetectHandler{}
}

func (h *DetectHandler) Redirect(c *gin.Context) {
	original := c.Request.URL.RequestURI()
	c.Redirect(http.StatusFound, "/guest/authorize?continue="+url.QueryEscape(original))
}
