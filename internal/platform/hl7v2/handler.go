package hl7v2

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler provides HTTP endpoints for inspecting HL7v2 messages.
type Handler struct {
	proc *Processor
}

// NewHandler creates a new HL7v2 handler backed by proc.
func NewHandler(proc *Processor) *Handler {
	return &Handler{proc: proc}
}

// RegisterRoutes registers HL7v2 endpoints on the provided route group.
//
//	POST /hl7v2/parse          - Parse an HL7v2 message to JSON
//	POST /hl7v2/ack            - Parse a message and return its ACK
//	GET  /hl7v2/profiles       - Resolved strictness rules for a version
//	GET  /hl7v2/capabilities   - Supported segments, message types and charsets
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/hl7v2/parse", h.ParseMessage)
	g.POST("/hl7v2/ack", h.AcknowledgeMessage)
	g.GET("/hl7v2/profiles", h.GetProfile)
	g.GET("/hl7v2/capabilities", h.GetCapabilities)
}

// segmentJSON is the JSON representation of a parsed segment. Data holds
// the typed segment, or the generic field tree for unknown types.
type segmentJSON struct {
	Type  string      `json:"type"`
	Typed bool        `json:"typed"`
	Data  interface{} `json:"data"`
}

// ParseMessage handles POST /hl7v2/parse.
// It reads raw HL7v2 from the request body and returns parsed JSON.
func (h *Handler) ParseMessage(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return bodyError(c, err)
	}

	msg, err := h.proc.Parser().Parse(body)
	if err != nil {
		return parseFailure(c, err)
	}

	segments := make([]segmentJSON, len(msg.Segments))
	for i, seg := range msg.Segments {
		if g, ok := seg.(*GenericSegment); ok {
			segments[i] = segmentJSON{Type: g.Type, Data: g.Fields}
			continue
		}
		segments[i] = segmentJSON{Type: seg.SegmentType(), Typed: true, Data: seg}
	}

	errs := msg.Errors
	if errs == nil {
		errs = ParseErrors{}
	}

	result := map[string]interface{}{
		"type":         msg.Type().String(),
		"kind":         msg.Kind(),
		"controlId":    msg.ControlID(),
		"version":      msg.Version(),
		"sendingApp":   msg.Header.SendingApplication.NamespaceID,
		"sendingFac":   msg.Header.SendingFacility.NamespaceID,
		"receivingApp": msg.Header.ReceivingApplication.NamespaceID,
		"receivingFac": msg.Header.ReceivingFacility.NamespaceID,
		"segments":     segments,
		"message":      msg.Variant,
		"errors":       errs,
	}
	if !msg.Header.DateTimeOfMessage.IsZero() {
		result["timestamp"] = msg.Header.DateTimeOfMessage.Time.UTC().Format("2006-01-02T15:04:05Z")
	}

	return c.JSON(http.StatusOK, result)
}

// AcknowledgeMessage handles POST /hl7v2/ack.
// The optional code query parameter overrides the computed ACK code. The
// ACK is returned as text/plain even when the message is rejected.
func (h *Handler) AcknowledgeMessage(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return bodyError(c, err)
	}

	var code AckCode
	if raw := c.QueryParam("code"); raw != "" {
		if code, err = ParseAckCode(raw); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
		}
	}

	var res *Result
	if code == "" {
		res, err = h.proc.Process(body)
	} else {
		res, err = h.proc.ProcessWithCode(body, code)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to build acknowledgment: " + err.Error(),
		})
	}

	c.Response().Header().Set("X-HL7-Ack-Code", string(res.Ack.Code))
	if res.Duplicate {
		c.Response().Header().Set("X-HL7-Duplicate", "true")
	}
	return c.Blob(http.StatusOK, "text/plain", res.Ack.Encode())
}

// GetProfile handles GET /hl7v2/profiles?version=2.5.1.
func (h *Handler) GetProfile(c echo.Context) error {
	version := c.QueryParam("version")
	if version == "" {
		version = h.proc.Parser().defaultVersion
	}
	p := h.proc.Parser().Profiles().Resolve(version)
	rules := p.Rules()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"version":        p.Version,
		"requiredFields": rules.RequiredFields,
		"exactlyOnce":    rules.ExactlyOnce,
	})
}

// GetCapabilities handles GET /hl7v2/capabilities.
func (h *Handler) GetCapabilities(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"segments":       KnownSegmentTypes(),
		"messageTypes":   []MessageKind{MessageADT, MessageORU, MessageORM, MessageACK},
		"characterSets":  SupportedCharacterSets(),
		"maxMessageSize": h.proc.Parser().MaxMessageSize(),
	})
}

var errEmptyBody = errors.New("request body is empty")

func readBody(c echo.Context) ([]byte, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, errEmptyBody
	}
	return body, nil
}

// bodyError maps a readBody failure to a response. Body limit errors are
// passed through to echo.
func bodyError(c echo.Context, err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	msg := "failed to read request body"
	if errors.Is(err, errEmptyBody) {
		msg = err.Error()
	}
	return c.JSON(http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func parseFailure(c echo.Context, err error) error {
	status := http.StatusBadRequest
	var pe *ParseError
	if errors.As(err, &pe) && pe.Kind == KindMessageTooLarge {
		status = http.StatusRequestEntityTooLarge
	}
	resp := map[string]interface{}{
		"error": "failed to parse HL7v2 message: " + err.Error(),
	}
	if pe != nil {
		resp["kind"] = pe.Kind
	}
	return c.JSON(status, resp)
}
