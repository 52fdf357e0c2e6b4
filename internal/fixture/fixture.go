// Package fixture serves a demo lesson dashboard: both chart series embedded
// through every data strategy, a notification list, the booking form, and
// the mark-read endpoint protected by a double-submit CSRF cookie.
package fixture

import (
	"net/http"
	"sort"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"lessonpanel/internal/series"
)

// Embed selects which data strategies the dashboard page carries.
type Embed uint8

const (
	EmbedGlobal Embed = 1 << iota
	EmbedAttribute
	EmbedDebug

	EmbedAll = EmbedGlobal | EmbedAttribute | EmbedDebug
)

// Notification is one entry in the demo inbox.
type Notification struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Read    bool   `json:"read"`
}

// Server is the demo application server.
type Server struct {
	engine *gin.Engine
	logger *zap.Logger

	progress series.Series
	lessons  series.Series
	embed    Embed

	mu            sync.Mutex
	notifications map[string]*Notification
	tokens        map[string]bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSeries replaces the demo chart data.
func WithSeries(progress, lessons series.Series) Option {
	return func(s *Server) {
		s.progress = progress
		s.lessons = lessons
	}
}

// WithEmbed limits the page to the given data strategies.
func WithEmbed(e Embed) Option {
	return func(s *Server) { s.embed = e }
}

// WithNotifications replaces the demo inbox.
func WithNotifications(ns ...Notification) Option {
	return func(s *Server) {
		s.notifications = make(map[string]*Notification, len(ns))
		for _, n := range ns {
			n := n
			s.notifications[n.ID] = &n
		}
	}
}

// DefaultNotifications is the demo inbox.
func DefaultNotifications() []Notification {
	return []Notification{
		{ID: "42", Message: "Your lesson on Friday is confirmed"},
		{ID: "43", Message: "Instructor changed: Anna will drive with you"},
		{ID: "44", Message: "Theory exam results are available"},
	}
}

// DefaultProgress is the demo progress distribution.
func DefaultProgress() series.Series {
	return series.MustNew(
		series.Point{Label: "Beginner", Count: 3},
		series.Point{Label: "Intermediate", Count: 5},
		series.Point{Label: "Advanced", Count: 2},
	)
}

// DefaultLessons is the demo lesson frequency.
func DefaultLessons() series.Series {
	return series.MustNew(
		series.Point{Label: "2024-05-01", Count: 2},
		series.Point{Label: "2024-05-02", Count: 0},
		series.Point{Label: "2024-05-03", Count: 4},
		series.Point{Label: "2024-05-04", Count: 1},
	)
}

// New builds the server and its routes.
func New(opts ...Option) *Server {
	s := &Server{
		logger:   zap.NewNop(),
		progress: DefaultProgress(),
		lessons:  DefaultLessons(),
		embed:    EmbedAll,
		tokens:   make(map[string]bool),
	}
	WithNotifications(DefaultNotifications()...)(s)
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(s.logger))
	r.GET("/", s.dashboard)
	r.GET("/notifications", s.listNotifications)

	protected := r.Group("/")
	protected.Use(CSRF(CookieName, HeaderName, s.issued))
	{
		protected.POST("/notification/read/:id/", s.markRead)
	}
	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on addr until the server fails.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// IsRead reports whether notification id has been marked read.
func (s *Server) IsRead(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	return ok && n.Read
}

// Notifications returns a snapshot of the inbox ordered by id.
func (s *Server) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IssueToken registers and returns a fresh CSRF token.
func (s *Server) IssueToken() string {
	tok := uuid.NewString()
	s.mu.Lock()
	s.tokens[tok] = true
	s.mu.Unlock()
	return tok
}

func (s *Server) issued(tok string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[tok]
}

func (s *Server) listNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notifications": s.Notifications()})
}

func (s *Server) markRead(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	n, ok := s.notifications[id]
	if ok {
		n.Read = true
	}
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found", "id": id})
		return
	}
	s.logger.Info("notification marked read", zap.String("id", id))
	c.JSON(http.StatusOK, gin.H{"status": "ok", "id": id, "read": true})
}
