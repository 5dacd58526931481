package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KaramelBytes/engage-cli/internal/dataset"
	"github.com/KaramelBytes/engage-cli/internal/model"
	"github.com/KaramelBytes/engage-cli/internal/pipeline"
)

const maxUploadBytes = 8 << 20

// PredictRequest is the JSON body of /api/v1/predict.
type PredictRequest struct {
	Rows         []dataset.Record `json:"rows"`
	TestFraction *float64         `json:"test_fraction"`
	Seed         *int64           `json:"seed"`
}

// PredictResponse reports one pipeline run.
type PredictResponse struct {
	RunID     string  `json:"run_id"`
	Source    string  `json:"source"`
	Rows      int     `json:"rows"`
	Dropped   int     `json:"dropped"`
	R2Score   float64 `json:"r2_score"`
	MSE       float64 `json:"mse"`
	MAE       float64 `json:"mae"`
	TrainRows int     `json:"train_rows"`
	TestRows  int     `json:"test_rows"`
}

// NormalizeRequest is the JSON body of /api/v1/normalize.
type NormalizeRequest struct {
	Records []dataset.Record `json:"records"`
	Schema  string           `json:"schema"`
}

// HealthHandler reports liveness.
func (s *Server) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ExampleHandler returns the built-in example dataset.
func (s *Server) ExampleHandler(c *gin.Context) {
	t := dataset.Normalize(dataset.ExampleRecords(), dataset.EngagementSchema, s.log())
	c.JSON(http.StatusOK, gin.H{"columns": t.ColumnNames(), "rows": t.JSONRows()})
}

// PredictHandler trains and scores the model on an uploaded CSV (multipart
// field "file") or on JSON rows.
func (s *Server) PredictHandler(c *gin.Context) {
	opt := s.Defaults
	opt.Logger = s.log()
	opt.Plot = false
	opt.SaveModel = ""
	opt.SaveNormalized = ""

	var (
		res *pipeline.Result
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		res, err = s.predictUpload(c, opt)
	} else {
		var req PredictRequest
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + bindErr.Error()})
			return
		}
		if req.TestFraction != nil {
			opt.Model.TestFraction = *req.TestFraction
		}
		if req.Seed != nil {
			opt.Model.Seed = *req.Seed
		}
		res, err = pipeline.RunRecords(req.Rows, pipeline.SourceRecords, opt)
	}
	if err != nil {
		var (
			bad *badRequest
			de  *dataset.DecodeError
		)
		switch {
		case errors.As(err, &bad):
			c.JSON(http.StatusBadRequest, gin.H{"error": bad.msg})
		case errors.Is(err, model.ErrInvalidFraction):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, dataset.ErrSchema), errors.Is(err, dataset.ErrEmptyDataset), errors.As(err, &de):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			s.log().Error("predict failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, toResponse(res))
}

type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func (s *Server) predictUpload(c *gin.Context, opt pipeline.Options) (*pipeline.Result, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, &badRequest{msg: "multipart field \"file\" is required"}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, &badRequest{msg: "cannot open upload"}
	}
	defer f.Close()
	raw, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return nil, &badRequest{msg: "cannot read upload"}
	}
	if len(raw) > maxUploadBytes {
		return nil, &badRequest{msg: "upload too large"}
	}
	if v := c.PostForm("test_fraction"); v != "" {
		tf, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, &badRequest{msg: "test_fraction must be a number"}
		}
		opt.Model.TestFraction = tf
	}
	if v := c.PostForm("seed"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, &badRequest{msg: "seed must be an integer"}
		}
		opt.Model.Seed = seed
	}
	lopt := opt.Load
	lopt.Logger = s.log()
	t, err := dataset.Parse(fh.Filename, raw, lopt)
	if err != nil {
		return nil, err
	}
	return pipeline.RunTable(t, pipeline.SourceFile, opt)
}

func toResponse(res *pipeline.Result) PredictResponse {
	ev := res.Evaluation
	return PredictResponse{
		RunID:     res.RunID,
		Source:    res.Source,
		Rows:      res.Rows,
		Dropped:   res.Dropped,
		R2Score:   ev.Score,
		MSE:       ev.MSE,
		MAE:       ev.MAE,
		TrainRows: ev.TrainRows,
		TestRows:  ev.TestRows,
	}
}

// NormalizeHandler coerces records to the posts or engagement schema.
func (s *Server) NormalizeHandler(c *gin.Context) {
	var req NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}
	schema, ok := dataset.SchemaByName(req.Schema)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown schema: " + req.Schema})
		return
	}
	t := dataset.Normalize(req.Records, schema, s.log())
	c.JSON(http.StatusOK, gin.H{"schema": schema.Name, "columns": t.ColumnNames(), "rows": t.JSONRows()})
}

// PostsHandler lists stored posts, newest first.
func (s *Server) PostsHandler(c *gin.Context) {
	if s.Posts == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "post store not configured"})
		return
	}
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	posts, err := s.Posts.ListPosts(c.Request.Context(), limit)
	if err != nil {
		s.log().Error("list posts failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]map[string]any, len(posts))
	for i, p := range posts {
		out[i] = map[string]any(p.Record())
	}
	c.JSON(http.StatusOK, gin.H{"count": len(posts), "posts": out})
}
