// In file: cmd/gateway/handler.go
package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dileep-u-k/weather-agent/internal/agent"
	"github.com/dileep-u-k/weather-agent/internal/api"
	"github.com/dileep-u-k/weather-agent/internal/llm"
	"github.com/dileep-u-k/weather-agent/internal/metrics"
	"github.com/dileep-u-k/weather-agent/internal/tools"
	"github.com/dileep-u-k/weather-agent/internal/version"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"

	// maxToolArgsBytes bounds the body of a direct tool call.
	maxToolArgsBytes = 64 << 10
)

// GatewayHandler serves the agents and tools over HTTP.
type GatewayHandler struct {
	agents      map[string]*agent.Agent
	agentOrder  []string
	toolManager *tools.ToolManager
	metrics     *metrics.Recorder
	buildInfo   version.BuildInfo
}

// NewGatewayHandler serves the given agents. recorder may be nil.
func NewGatewayHandler(agents []*agent.Agent, toolManager *tools.ToolManager, recorder *metrics.Recorder, buildInfo version.BuildInfo) *GatewayHandler {
	h := &GatewayHandler{
		agents:      make(map[string]*agent.Agent, len(agents)),
		toolManager: toolManager,
		metrics:     recorder,
		buildInfo:   buildInfo,
	}
	for _, a := range agents {
		name := a.Config().Name
		h.agents[name] = a
		h.agentOrder = append(h.agentOrder, name)
	}
	return h
}

// RegisterRoutes mounts every endpoint on the engine.
func (h *GatewayHandler) RegisterRoutes(engine *gin.Engine) {
	engine.Use(requestID())
	engine.GET("/healthz", h.HandleHealth)
	engine.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	v1 := engine.Group("/api/v1")
	{
		v1.GET("/agents", h.HandleListAgents)
		v1.POST("/agents/:name/run", h.HandleRunAgent)
		v1.GET("/tools", h.HandleListTools)
		v1.POST("/tools/:name", h.HandleInvokeTool)
	}
}

// requestID propagates or assigns an X-Request-ID.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (h *GatewayHandler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"build":  h.buildInfo,
		"agents": len(h.agents),
		"tools":  h.toolManager.ToolCount(),
	})
}

func (h *GatewayHandler) HandleListAgents(c *gin.Context) {
	infos := make([]api.AgentInfo, 0, len(h.agentOrder))
	for _, name := range h.agentOrder {
		cfg := h.agents[name].Config()
		infos = append(infos, api.AgentInfo{
			Name:        cfg.Name,
			Description: cfg.Description,
			Model:       cfg.Model,
			Fallbacks:   cfg.Fallbacks,
			Tools:       h.agents[name].ToolNames(),
		})
	}
	c.JSON(http.StatusOK, infos)
}

func (h *GatewayHandler) HandleRunAgent(c *gin.Context) {
	startTime := time.Now()
	reqID := c.GetString(requestIDKey)

	a, ok := h.agents[c.Param("name")]
	if !ok {
		abortWithError(c, http.StatusNotFound, "unknown agent: "+c.Param("name"))
		return
	}

	var req api.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	log.Printf("--- New Run (Agent: %s, Request: %s, Prompt: '%.30s...') ---", a.Config().Name, reqID, req.Prompt)

	res, err := a.Run(c.Request.Context(), toLLMMessages(req.History), req.Prompt)
	h.recordRun(a.Config().Name, time.Since(startTime), res, err)
	if err != nil {
		log.Printf("❌ Run %s failed: %v", reqID, err)
		abortWithError(c, statusForRunError(err), err.Error())
		return
	}

	latency := time.Since(startTime)
	log.Printf("✅ Run %s answered by %s in %s (%d tool calls)", reqID, res.ModelUsed, latency, len(res.ToolCalls))
	c.JSON(http.StatusOK, api.RunResponse{
		RequestID: reqID,
		Agent:     a.Config().Name,
		Content:   res.Content,
		ModelUsed: res.ModelUsed,
		Usage:     res.Usage,
		LatencyMS: latency.Milliseconds(),
		ToolCalls: res.ToolCalls,
	})
}

func (h *GatewayHandler) HandleListTools(c *gin.Context) {
	c.JSON(http.StatusOK, h.toolManager.Definitions())
}

// HandleInvokeTool runs a tool directly; the request body is its JSON arguments.
func (h *GatewayHandler) HandleInvokeTool(c *gin.Context) {
	name := c.Param("name")
	if !h.toolManager.Has(name) {
		abortWithError(c, http.StatusNotFound, "unknown tool: "+name)
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxToolArgsBytes))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "could not read request body: "+err.Error())
		return
	}

	out, err := h.toolManager.Execute(c.Request.Context(), name, string(body))
	h.metrics.RecordToolCall(name, err != nil)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, tools.ErrToolNotFound) {
			status = http.StatusNotFound
		}
		abortWithError(c, status, err.Error())
		return
	}
	c.JSON(http.StatusOK, api.ToolResponse{Tool: name, Output: out})
}

func (h *GatewayHandler) recordRun(agentName string, elapsed time.Duration, res *agent.Result, err error) {
	if err != nil {
		h.metrics.RecordRun(agentName, "", elapsed, 0, 0, err)
		return
	}
	h.metrics.RecordRun(agentName, res.ModelUsed, elapsed, res.Usage.PromptTokens, res.Usage.CompletionTokens, nil)
	for _, call := range res.ToolCalls {
		h.metrics.RecordToolCall(call.Name, call.Error != "")
	}
}

func statusForRunError(err error) int {
	switch {
	case errors.Is(err, agent.ErrEmptyPrompt):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	// Model failures, fallbacks exhausted and runaway tool loops.
	return http.StatusBadGateway
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, api.ErrorResponse{Error: msg, RequestID: c.GetString(requestIDKey)})
}

func toLLMMessages(history []api.Message) []llm.Message {
	out := make([]llm.Message, len(history))
	for i, msg := range history {
		out[i] = llm.Message{Role: llm.Role(msg.Role), Content: msg.Content}
	}
	return out
}
