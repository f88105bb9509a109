package server

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mesh-intelligence/coursealloc/internal/session"
	"github.com/mesh-intelligence/coursealloc/internal/tableio"
	"github.com/mesh-intelligence/coursealloc/internal/tabular"
	"github.com/mesh-intelligence/coursealloc/pkg/types"
)

type algorithmView struct {
	ID    types.Algorithm `json:"id"`
	Title string          `json:"title"`
}

type dimensionsRequest struct {
	Agents int `json:"agents"`
	Items  int `json:"items"`
}

type cellsRequest struct {
	Cells []tabular.CellEdit `json:"cells"`
}

type runRequest struct {
	Algorithms []string `json:"algorithms"`
}

type runView struct {
	RunID     string          `json:"run_id"`
	SessionID string          `json:"session_id"`
	Outcomes  []types.Outcome `json:"outcomes"`
	ElapsedMS float64         `json:"elapsed_ms"`
	CreatedAt time.Time       `json:"created_at"`
}

func newRunView(r *types.RunRecord) runView {
	return runView{
		RunID:     r.RunID,
		SessionID: r.SessionID,
		Outcomes:  r.Outcomes,
		ElapsedMS: float64(r.Elapsed) / float64(time.Millisecond),
		CreatedAt: r.CreatedAt,
	}
}

func (s *Server) listAlgorithms(c *fiber.Ctx) error {
	out := make([]algorithmView, 0, len(types.Algorithms))
	for _, a := range types.Algorithms {
		out = append(out, algorithmView{ID: a, Title: a.Title()})
	}
	return c.JSON(out)
}

func (s *Server) listSessions(c *fiber.Ctx) error {
	ids, err := s.mgr.List()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"sessions": ids})
}

func (s *Server) createSession(c *fiber.Ctx) error {
	req := dimensionsRequest{Agents: types.DefaultDimensions.Agents, Items: types.DefaultDimensions.Items}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fmt.Errorf("%w: %v", types.ErrValidation, err)
		}
	}
	snap, err := s.mgr.Create(types.Dimensions{Agents: req.Agents, Items: req.Items})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(snap)
}

func (s *Server) getSession(c *fiber.Ctx) error {
	snap, err := s.mgr.Get(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

func (s *Server) deleteSession(c *fiber.Ctx) error {
	if err := s.mgr.Delete(c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) setDimensions(c *fiber.Ctx) error {
	var req dimensionsRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: %v", types.ErrValidation, err)
	}
	snap, err := s.mgr.Apply(c.Params("id"), func(sess *session.Session) error {
		return sess.SetDimensions(types.Dimensions{Agents: req.Agents, Items: req.Items})
	})
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

func (s *Server) shuffle(c *fiber.Ctx) error {
	snap, err := s.mgr.Apply(c.Params("id"), func(sess *session.Session) error {
		return sess.Shuffle()
	})
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

func (s *Server) upload(c *fiber.Ctx) error {
	payload, err := uploadPayload(c)
	if err != nil {
		return err
	}
	return s.applyTable(c, func(sess *session.Session, table string) (*types.Table, error) {
		return sess.Upload(table, payload)
	})
}

// uploadPayload reads a multipart "file" field or, failing that, the raw
// request body.
func uploadPayload(c *fiber.Ctx) ([]byte, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return c.Body(), nil
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: missing file field: %v", types.ErrImport, err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrImport, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrImport, err)
	}
	return data, nil
}

func (s *Server) editCells(c *fiber.Ctx) error {
	var req cellsRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: %v", types.ErrValidation, err)
	}
	return s.applyTable(c, func(sess *session.Session, table string) (*types.Table, error) {
		return sess.Edit(table, req.Cells)
	})
}

// applyTable runs one table event and answers with the resulting table, or
// with the error and the table that is still stored.
func (s *Server) applyTable(c *fiber.Ctx, fn func(*session.Session, string) (*types.Table, error)) error {
	table := c.Params("table")
	if !types.ValidTableName(table) {
		return fmt.Errorf("%w: %q", types.ErrUnknownTable, table)
	}
	var result *types.Table
	_, err := s.mgr.Apply(c.Params("id"), func(sess *session.Session) error {
		t, err := fn(sess, table)
		result = t
		return err
	})
	if err != nil {
		if result != nil {
			return &tableError{err: err, table: result}
		}
		return err
	}
	return c.JSON(result)
}

func (s *Server) downloadCSV(c *fiber.Ctx) error {
	table := c.Params("table")
	if !types.ValidTableName(table) {
		return fmt.Errorf("%w: %q", types.ErrUnknownTable, table)
	}
	snap, err := s.mgr.Get(c.Params("id"))
	if err != nil {
		return err
	}
	data, err := tableio.Encode(snap.Tables[table])
	if err != nil {
		return err
	}
	c.Attachment(table + ".csv")
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(data)
}

func (s *Server) run(c *fiber.Ctx) error {
	var req runRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fmt.Errorf("%w: %v", types.ErrValidation, err)
		}
	}
	algs := make([]types.Algorithm, 0, len(req.Algorithms))
	for _, name := range req.Algorithms {
		alg, err := types.ParseAlgorithm(name)
		if err != nil {
			return err
		}
		algs = append(algs, alg)
	}
	rec, err := s.mgr.Run(c.Params("id"), algs)
	if err != nil {
		return err
	}
	return c.JSON(newRunView(rec))
}

func (s *Server) listRuns(c *fiber.Ctx) error {
	recs, err := s.mgr.Runs(c.Params("id"))
	if err != nil {
		return err
	}
	out := make([]runView, 0, len(recs))
	for _, r := range recs {
		out = append(out, newRunView(r))
	}
	return c.JSON(out)
}
