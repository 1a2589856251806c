// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/agent"
	"github.com/pdiddy/deep-research/internal/reports"
	"github.com/pdiddy/deep-research/pkg/types"
)

// maxReportSources caps the source list in the final report frame so a large
// run does not blow up the client payload. The saved markdown keeps the full
// bibliography.
const maxReportSources = 50

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The frontend is served by this same process; cross-origin browser
	// clients are expected during local development.
	CheckOrigin: func(*http.Request) bool { return true },
}

// researchRequest is the single frame a client sends to start a run.
type researchRequest struct {
	Query string `json:"query"`
}

// reportFrame is the final frame of a successful run, sent after the
// complete event.
type reportFrame struct {
	Type           agent.EventType      `json:"event_type"`
	Markdown       string               `json:"markdown"`
	TotalSources   int                  `json:"total_sources"`
	Iterations     int                  `json:"iterations"`
	Contradictions int                  `json:"contradictions"`
	Sources        []types.SourceRecord `json:"sources"`
	Filename       string               `json:"filename"`
}

// handleResearch runs one research loop per WebSocket connection. The client
// sends a single query frame; the server streams progress events and closes
// with a report frame. A client disconnect cancels the run.
func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	var req researchRequest
	if err := conn.ReadJSON(&req); err != nil {
		s.logger.Warn("reading research request", zap.Error(err))
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		s.writeEvent(conn, agent.NewEvent(agent.EventError, "Query must not be empty.", nil))
		return
	}
	if len(query) > s.cfg.MaxQueryLength {
		s.writeEvent(conn, agent.NewEvent(agent.EventError, "Query is too long.", nil))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader pump: the client sends nothing after the query, so the next
	// read returning is the disconnect signal.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	// All writes happen from this goroutine; the pump above only reads.
	sink := agent.SinkFunc(func(ev agent.Event) error {
		return conn.WriteJSON(ev)
	})

	s.logger.Info("research started", zap.String("query", query))
	report, err := s.researcher.Research(ctx, query, sink)
	if err != nil {
		s.logger.Info("research aborted", zap.String("query", query), zap.Error(err))
		return
	}

	filename, err := reports.Save(s.cfg.ReportsDir, report, s.now())
	if err != nil {
		s.logger.Error("saving report", zap.Error(err))
	}

	frame := reportFrame{
		Type:           "report",
		Markdown:       report.ReportMarkdown,
		TotalSources:   len(report.Sources),
		Iterations:     report.Iterations,
		Contradictions: len(report.Contradictions),
		Sources:        report.Sources,
		Filename:       filename,
	}
	if len(frame.Sources) > maxReportSources {
		frame.Sources = frame.Sources[:maxReportSources]
	}
	if err := conn.WriteJSON(frame); err != nil {
		s.logger.Warn("writing report frame", zap.Error(err))
		return
	}

	deadline := time.Now().Add(time.Second)
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
}

func (s *Server) writeEvent(conn *websocket.Conn, ev agent.Event) {
	if err := conn.WriteJSON(ev); err != nil {
		s.logger.Warn("writing event", zap.Error(err))
	}
}
