package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"coachdb/internal/pipeline"
	"coachdb/internal/storage"
)

// Server serves read-only queries over the coach database.
type Server struct {
	db *storage.DB
}

func NewServer(db *storage.DB) *Server {
	return &Server{db: db}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/", s.health)
	r.GET("/stats", s.stats)
	r.GET("/coaches", s.listCoaches)
	r.GET("/coaches/:id", s.getCoach)
	r.GET("/coaches/:id/career", s.getCareer)
	r.GET("/coaches/:id/history", s.getHistory)
	r.GET("/schools", s.listSchools)
	r.GET("/schools/:slug", s.getSchool)
	r.GET("/schools/:slug/staff", s.getSchoolStaff)
	r.GET("/salaries", s.listSalaries)
	r.GET("/search", s.search)
	r.GET("/years", s.years)
	r.GET("/changes", s.changes)
	return r
}

func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "Coach Database API",
		"version": "1.0.0",
	})
}

// effectiveYear resolves the year query param, defaulting to the most recent
// season in the store.
func (s *Server) effectiveYear(c *gin.Context) (int, bool) {
	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
			return 0, false
		}
		return year, true
	}
	year, err := s.db.LatestYear()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return 0, false
	}
	return year, true
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func (s *Server) stats(c *gin.Context) {
	year, ok := s.effectiveYear(c)
	if !ok {
		return
	}
	stats, err := s.db.SeasonStats(year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) listCoaches(c *gin.Context) {
	year, ok := s.effectiveYear(c)
	if !ok {
		return
	}
	coaches, err := s.db.ListCoaches(storage.CoachFilter{
		Year:     year,
		School:   c.Query("school"),
		Position: c.Query("position"),
		HeadOnly: c.Query("head_only") == "true",
		Limit:    intQuery(c, "limit", 2500),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, coaches)
}

func (s *Server) getCoach(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coach id"})
		return
	}
	coach, err := s.db.CoachView(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if coach == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Coach not found"})
		return
	}
	c.JSON(http.StatusOK, coach)
}

func (s *Server) getCareer(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coach id"})
		return
	}
	rows, err := s.db.CareerRows(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if rows == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Coach not found"})
		return
	}
	c.JSON(http.StatusOK, pipeline.BuildCareer(rows))
}

func (s *Server) getHistory(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coach id"})
		return
	}
	coach, err := s.db.CoachByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if coach == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Coach not found"})
		return
	}
	history, err := s.db.CoachHistory(coach.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, history)
}

func (s *Server) listSchools(c *gin.Context) {
	year, ok := s.effectiveYear(c)
	if !ok {
		return
	}
	schools, err := s.db.SchoolSummaries(year, c.Query("conference"), intQuery(c, "limit", 100))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, schools)
}

func (s *Server) getSchool(c *gin.Context) {
	year, ok := s.effectiveYear(c)
	if !ok {
		return
	}
	slug := c.Param("slug")
	school, err := s.db.SchoolBySlug(slug)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if school == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "School not found"})
		return
	}
	staff, err := s.db.SchoolStaff(slug, year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         school.ID,
		"name":       school.Name,
		"slug":       school.Slug,
		"conference": school.Conference,
		"year":       year,
		"staff":      staff,
	})
}

func (s *Server) getSchoolStaff(c *gin.Context) {
	year, ok := s.effectiveYear(c)
	if !ok {
		return
	}
	slug := c.Param("slug")
	school, err := s.db.SchoolBySlug(slug)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if school == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "School not found"})
		return
	}
	staff, err := s.db.SchoolStaff(slug, year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, staff)
}

func (s *Server) listSalaries(c *gin.Context) {
	year, ok := s.effectiveYear(c)
	if !ok {
		return
	}
	salaries, err := s.db.HeadCoachSalaries(year, int64(intQuery(c, "min_pay", 0)),
		c.Query("conference"), intQuery(c, "limit", 50))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, salaries)
}

func (s *Server) search(c *gin.Context) {
	q := c.Query("q")
	if len(q) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query must be at least 2 characters"})
		return
	}
	year, ok := s.effectiveYear(c)
	if !ok {
		return
	}
	hits, err := s.db.SearchCoaches(q, year, intQuery(c, "limit", 20))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, hits)
}

func (s *Server) years(c *gin.Context) {
	years, err := s.db.Years()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	var latest *int
	if len(years) > 0 {
		latest = &years[0]
	}
	c.JSON(http.StatusOK, gin.H{"years": years, "latest": latest})
}

func (s *Server) changes(c *gin.Context) {
	from, err1 := strconv.Atoi(c.Query("from"))
	to, err2 := strconv.Atoi(c.Query("to"))
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to years are required"})
		return
	}

	fromRoster, err := s.db.Roster(from)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	toRoster, err := s.db.Roster(to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	changeSet := pipeline.DetectChanges(fromRoster, toRoster)
	c.JSON(http.StatusOK, gin.H{
		"from":       from,
		"to":         to,
		"new_hires":  changeSet.NewHires,
		"departures": changeSet.Departures,
		"promotions": changeSet.Promotions,
		"moves":      changeSet.Moves,
	})
}
