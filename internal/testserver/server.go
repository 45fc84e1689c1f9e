// Package testserver runs an in-memory stand-in for a cluster's Mozart
// and GRQ APIs, backing the client packages' tests.
package testserver

import (
	"net/http"
	"net/url"
	"strconv"
	"sync"

	commongin "github.com/equinor/radix-common/pkg/gin"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hysds/mozart-go/models"
)

// Submission One recorded job submission form
type Submission struct {
	Queue       string
	Priority    string
	JobName     string
	Tags        string
	Type        string
	Params      string
	EnableDedup string
}

// JobState Scripted server-side state of one job
type JobState struct {
	// Statuses Successive answers of the status endpoint; the last
	// entry repeats once consumed
	Statuses []models.Status

	// StatusFailures Number of leading status queries answered with a
	// 500; -1 fails every query
	StatusFailures int

	// FailBody Body of the scripted 500 answers
	FailBody string

	Info     map[string]any
	Products []map[string]any

	next    int
	queries int
	failed  int
}

// Server An in-memory cluster
type Server struct {
	engine *gin.Engine

	mu          sync.Mutex
	catalog     []models.JobTypeSummary
	schemas     map[string]models.HysdsIO
	queues      map[string]models.QueueList
	jobParams   map[string][]models.Parameter
	jobs        map[string]*JobState
	userJobs    map[string][]map[string]any
	submissions []Submission
	listQueries []url.Values
	nextJobID   string
	submitError string
	registered  map[string]bool
}

// New Constructor
func New() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		schemas:    map[string]models.HysdsIO{},
		queues:     map[string]models.QueueList{},
		jobParams:  map[string][]models.Parameter{},
		jobs:       map[string]*JobState{},
		userJobs:   map[string][]map[string]any{},
		registered: map[string]bool{},
	}

	engine := gin.New()
	engine.RemoveExtraSlash = true
	engine.Use(commongin.ZerologRequestLogger(), gin.Recovery())

	grq := engine.Group("/grq/api/v0.1")
	{
		grq.GET("/grq/on-demand", s.getOnDemand)
		grq.GET("/hysds_io/type", s.getHysdsIO)
		grq.GET("/grq/job-params", s.getJobParams)
	}
	mozart := engine.Group("/mozart/api/v0.1")
	{
		mozart.GET("/queue/list", s.getQueueList)
		mozart.POST("/job/submit", s.submitJob)
		mozart.GET("/job/status", s.getJobStatus)
		mozart.GET("/job/info", s.getJobInfo)
		mozart.GET("/job/products/:id", s.getJobProducts)
		mozart.GET("/job/user/:username", s.getUserJobs)
	}
	build := engine.Group("/mozart/api/ci")
	{
		build.GET("/job-builder", s.buildJobExists)
		build.POST("/job-builder", s.submitBuild)
		build.DELETE("/job-builder", s.stopBuild)
		build.POST("/register", s.registerBuildJob)
		build.DELETE("/register", s.unregisterBuildJob)
		build.GET("/build", s.buildStatus)
		build.DELETE("/build", s.deleteBuild)
	}

	s.engine = engine
	return s
}

// Engine The HTTP handler to mount in an httptest server
func (s *Server) Engine() http.Handler {
	return s.engine
}

// AddJobType Registers a catalog entry with its schema and queue list
func (s *Server) AddJobType(summary models.JobTypeSummary, schema models.HysdsIO, queues models.QueueList) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = append(s.catalog, summary)
	s.schemas[summary.HysdsIO] = schema
	s.queues[summary.JobSpec] = queues
}

// SetJobParams Registers the default parameter descriptors of a job spec
func (s *Server) SetJobParams(jobSpec string, params []models.Parameter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobParams[jobSpec] = params
}

// AddJob Registers a job with scripted state and returns the state for
// later inspection
func (s *Server) AddJob(id string, state *JobState) *JobState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state == nil {
		state = &JobState{}
	}
	if len(state.Statuses) == 0 {
		state.Statuses = []models.Status{models.StatusQueued}
	}
	s.jobs[id] = state
	return state
}

// SetUserJobs Registers the records answered by the per-user listing
func (s *Server) SetUserJobs(username string, records []map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userJobs[username] = records
}

// SetNextJobID Fixes the id issued to the next submission
func (s *Server) SetNextJobID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextJobID = id
}

// FailSubmissions Makes the submit endpoint answer 500 with body
func (s *Server) FailSubmissions(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitError = body
}

// Submissions The recorded submission forms
func (s *Server) Submissions() []Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Submission(nil), s.submissions...)
}

// LastSubmission The most recent submission form, or nil
func (s *Server) LastSubmission() *Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.submissions) == 0 {
		return nil
	}
	last := s.submissions[len(s.submissions)-1]
	return &last
}

// ListQueries The query values of each per-user listing request
func (s *Server) ListQueries() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.listQueries...)
}

// StatusQueries Number of status queries answered for a job, failures
// included
func (s *Server) StatusQueries(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		return job.queries
	}
	return 0
}

// BuildJobRegistered Whether a repo/branch build job is registered
func (s *Server) BuildJobRegistered(repo, branch string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registered[repo+"#"+branch]
}

func (s *Server) getOnDemand(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id := c.Query("id"); id != "" {
		for _, summary := range s.catalog {
			if summary.HysdsIO == id {
				c.JSON(http.StatusOK, gin.H{"success": true, "result": summary})
				return
			}
		}
		c.String(http.StatusNotFound, "job type %s not found", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": s.catalog})
}

func (s *Server) getHysdsIO(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	schema, ok := s.schemas[c.Query("id")]
	if !ok {
		c.String(http.StatusNotFound, "hysds_io %s not found", c.Query("id"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": schema})
}

func (s *Server) getJobParams(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	params, ok := s.jobParams[c.Query("job_type")]
	if !ok {
		c.String(http.StatusNotFound, "job spec %s not found", c.Query("job_type"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "params": params})
}

func (s *Server) getQueueList(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	queues, ok := s.queues[c.Query("id")]
	if !ok {
		c.String(http.StatusNotFound, "job spec %s not found", c.Query("id"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": queues})
}

func (s *Server) submitJob(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitError != "" {
		c.String(http.StatusInternalServerError, s.submitError)
		return
	}

	s.submissions = append(s.submissions, Submission{
		Queue:       c.PostForm("queue"),
		Priority:    c.PostForm("priority"),
		JobName:     c.PostForm("job_name"),
		Tags:        c.PostForm("tags"),
		Type:        c.PostForm("type"),
		Params:      c.PostForm("params"),
		EnableDedup: c.PostForm("enable_dedup"),
	})

	id := s.nextJobID
	s.nextJobID = ""
	if id == "" {
		id = uuid.NewString()
	}
	if _, ok := s.jobs[id]; !ok {
		s.jobs[id] = &JobState{Statuses: []models.Status{models.StatusQueued}}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": id})
}

func (s *Server) getJobStatus(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[c.Query("id")]
	if !ok {
		c.String(http.StatusNotFound, "job %s not found", c.Query("id"))
		return
	}
	job.queries++
	if job.StatusFailures == -1 || job.failed < job.StatusFailures {
		job.failed++
		body := job.FailBody
		if body == "" {
			body = "status backend unavailable"
		}
		c.String(http.StatusInternalServerError, body)
		return
	}
	status := job.Statuses[job.next]
	if job.next < len(job.Statuses)-1 {
		job.next++
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": status})
}

func (s *Server) getJobInfo(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[c.Query("id")]
	if !ok {
		c.String(http.StatusNotFound, "job %s not found", c.Query("id"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": job.Info})
}

func (s *Server) getJobProducts(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[c.Param("id")]
	if !ok {
		c.String(http.StatusNotFound, "job %s not found", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "results": job.Products})
}

func (s *Server) getUserJobs(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listQueries = append(s.listQueries, c.Request.URL.Query())

	records := s.userJobs[c.Param("username")]
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "100"))

	page := []map[string]any{}
	if offset < len(records) {
		end := offset + pageSize
		if end > len(records) {
			end = len(records)
		}
		page = records[offset:end]
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": page})
}

func buildJobKey(c *gin.Context) string {
	repo := c.Query("repo")
	if repo == "" {
		repo = c.PostForm("repo")
	}
	branch := c.Query("branch")
	if branch == "" {
		branch = c.PostForm("branch")
	}
	return repo + "#" + branch
}

func (s *Server) buildJobExists(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"success": s.registered[buildJobKey(c)]})
}

func (s *Server) registerBuildJob(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registered[buildJobKey(c)] = true
	c.String(http.StatusOK, "registered")
}

func (s *Server) unregisterBuildJob(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.registered, buildJobKey(c))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) submitBuild(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.registered[buildJobKey(c)] {
		c.String(http.StatusNotFound, "build job not registered")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": gin.H{"build_number": 1}})
}

func (s *Server) buildStatus(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.registered[buildJobKey(c)] {
		c.String(http.StatusNotFound, "build job not registered")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": gin.H{"status": "SUCCESS"}})
}

func (s *Server) stopBuild(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) deleteBuild(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"success": true})
}
