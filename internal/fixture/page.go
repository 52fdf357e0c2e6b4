package fixture

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lessonpanel/internal/charts"
)

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Driving School Dashboard</title>
<script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
</head>
<body>
{{- if .Global}}
<script>
  window.progressDistributionData = {{.ProgressJS}};
  window.lessonFrequencyData = {{.LessonsJS}};
</script>
{{- end}}
<div class="card">
  <h5>Progress Distribution</h5>
  <canvas id="{{.Progress.MountID}}" class="chart"{{if .Attribute}} data-progress-distribution="{{.ProgressJSON}}"{{end}}></canvas>
  <div id="{{.Progress.ErrorElementID}}" class="alert alert-danger" style="display: none"></div>
  {{- if .Debug}}
  <pre id="{{.Progress.DebugElementID}}" style="display: none">{{.ProgressJSON}}</pre>
  {{- end}}
</div>
<div class="card">
  <h5>Lessons per Day</h5>
  <canvas id="{{.Lessons.MountID}}" class="chart"{{if .Attribute}} data-lesson-frequency="{{.LessonsJSON}}"{{end}}></canvas>
  <div id="{{.Lessons.ErrorElementID}}" class="alert alert-danger" style="display: none"></div>
  {{- if .Debug}}
  <pre id="{{.Lessons.DebugElementID}}" style="display: none">{{.LessonsJSON}}</pre>
  {{- end}}
</div>
<ul class="list-group">
{{- range .Notifications}}
  <li class="list-group-item notification-item"{{if .Read}} style="opacity: 0.5"{{end}}>
    <span>{{.Message}}</span>
    {{- if .Read}}
    <button class="btn btn-sm btn-outline-secondary mark-notification-read" data-notification-id="{{.ID}}" disabled>Read</button>
    {{- else}}
    <button class="btn btn-sm btn-outline-primary mark-notification-read" data-notification-id="{{.ID}}">Mark as read</button>
    {{- end}}
  </li>
{{- end}}
</ul>
<form id="lesson-booking-form" method="post" action="/lessons/book/">
  <input type="date" name="date" required>
  <input type="time" name="start_time" value="09:00" required>
  <input type="time" name="end_time" required>
</form>
</body>
</html>
`))

type pageData struct {
	Global, Attribute, Debug bool

	Progress, Lessons         charts.Contract
	ProgressJSON, LessonsJSON string
	ProgressJS, LessonsJS     template.JS

	Notifications []Notification
}

// Page renders the dashboard HTML.
func (s *Server) Page() ([]byte, error) {
	progress, err := s.progress.MarshalJSON()
	if err != nil {
		return nil, err
	}
	lessons, err := s.lessons.MarshalJSON()
	if err != nil {
		return nil, err
	}
	data := pageData{
		Global:        s.embed&EmbedGlobal != 0,
		Attribute:     s.embed&EmbedAttribute != 0,
		Debug:         s.embed&EmbedDebug != 0,
		Progress:      charts.ProgressContract(),
		Lessons:       charts.LessonContract(),
		ProgressJSON:  string(progress),
		LessonsJSON:   string(lessons),
		ProgressJS:    template.JS(progress),
		LessonsJS:     template.JS(lessons),
		Notifications: s.Notifications(),
	}
	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) dashboard(c *gin.Context) {
	tok, err := c.Cookie(CookieName)
	if err != nil || !s.issued(tok) {
		tok = s.IssueToken()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(CookieName, tok, 0, "/", "", false, false)
	}

	body, err := s.Page()
	if err != nil {
		s.logger.Error("render dashboard", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", body)
}
