package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"knowledge-quiz/internal/app"
	"knowledge-quiz/internal/domain"
)

const sendBuffer = 64

type WSHandler struct {
	service  *app.QuizService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type topicPayload struct {
	Topic string `json:"topic"`
}

type answerPayload struct {
	Index *int `json:"index"`
}

type confirmationPayload struct {
	ID string `json:"id"`
}

type leaderboardPayload struct {
	Limit *int `json:"limit"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type evaluatedPayload struct {
	QuestionIndex int            `json:"questionIndex"`
	SelectedIndex *int           `json:"selectedIndex"`
	Evaluation    app.Evaluation `json:"evaluation"`
}

type leaderboardMessage struct {
	Entries []domain.LeaderboardEntry `json:"entries"`
	Top     []domain.LeaderboardEntry `json:"top"`
}

// ServeWS upgrades HTTP requests to websockets and binds the connection to the
// player's session machine. Intents arrive as JSON messages; machine events are
// pushed back as they happen.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		http.Error(w, "missing playerId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	logger := h.logger.With(zap.String("player", playerID))
	c := &wsConn{
		send:   make(chan any, sendBuffer),
		closed: make(chan struct{}),
	}

	machine, release := h.service.Connect(playerID, app.NotifierFunc(func(ev app.Event) { c.push(ev) }))
	defer release()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-c.closed:
				return
			case item := <-c.send:
				msg := h.render(machine, item)
				if err := conn.WriteJSON(msg); err != nil {
					logger.Debug("ws write error", zap.Error(err))
					_ = conn.Close()
					return
				}
			}
		}
	}()

	ctx := r.Context()
	c.push(outboundMessage{Type: "state", Payload: machine.Snapshot()})
	c.push(outboundMessage{Type: "theme", Payload: themeResponse{Dark: h.service.Theme().Dark(ctx)}})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if reply := h.handle(ctx, machine, inbound); reply != nil {
			c.push(*reply)
		}
	}

	c.close()
	<-writerDone
}

// handle runs one intent. Outcomes that the machine reports as events are not
// echoed here; only direct answers and errors are returned.
func (h *WSHandler) handle(ctx context.Context, machine *app.SessionMachine, in inboundMessage) *outboundMessage {
	switch in.Type {
	case "selectTopic":
		var p topicPayload
		if err := decode(in.Payload, &p); err != nil {
			return badPayload("selectTopic")
		}
		if err := machine.SelectTopic(ctx, p.Topic); err != nil {
			return errorMessage(err)
		}
		return stateMessage(machine)
	case "start":
		if err := machine.StartQuiz(ctx); err != nil {
			return errorMessage(err)
		}
	case "answer":
		var p answerPayload
		if err := decode(in.Payload, &p); err != nil || p.Index == nil {
			return badPayload("answer")
		}
		if _, err := machine.SubmitAnswer(*p.Index); err != nil {
			return errorMessage(err)
		}
	case "timeout":
		if err := machine.TimerExpired(); err != nil {
			return errorMessage(err)
		}
	case "quit":
		c, err := machine.RequestQuit()
		if err != nil {
			return errorMessage(err)
		}
		return &outboundMessage{Type: "confirmRequired", Payload: c}
	case "confirmQuit":
		var p confirmationPayload
		if err := decode(in.Payload, &p); err != nil {
			return badPayload("confirmQuit")
		}
		if err := machine.QuitQuiz(p.ID); err != nil {
			return errorMessage(err)
		}
	case "cancelQuit":
		var p confirmationPayload
		if err := decode(in.Payload, &p); err != nil {
			return badPayload("cancelQuit")
		}
		machine.CancelQuit(p.ID)
		return stateMessage(machine)
	case "restart":
		if err := machine.Restart(); err != nil {
			return errorMessage(err)
		}
		return stateMessage(machine)
	case "state":
		return stateMessage(machine)
	case "leaderboard":
		var p leaderboardPayload
		if err := decode(in.Payload, &p); err != nil {
			return badPayload("leaderboard")
		}
		limit := h.service.PreviewSize()
		if p.Limit != nil {
			limit = *p.Limit
		}
		board := h.service.Leaderboard()
		return &outboundMessage{Type: "leaderboard", Payload: leaderboardMessage{
			Entries: board.List(ctx),
			Top:     board.TopRanked(ctx, limit),
		}}
	case "toggleTheme":
		dark, err := h.service.Theme().Toggle(ctx)
		if err != nil {
			return errorMessage(err)
		}
		return &outboundMessage{Type: "theme", Payload: themeResponse{Dark: dark}}
	default:
		return &outboundMessage{Type: "error", Payload: errorBody{Code: "unsupported", Message: "unsupported message type"}}
	}
	return nil
}

// render turns a queued item into its wire message. Machine events are
// rendered on the writer goroutine so snapshots are taken outside dispatch.
func (h *WSHandler) render(machine *app.SessionMachine, item any) outboundMessage {
	ev, ok := item.(app.Event)
	if !ok {
		return item.(outboundMessage)
	}
	switch ev.Type {
	case app.EventTick:
		return outboundMessage{Type: "tick", Payload: ev.Timer}
	case app.EventEvaluated:
		return outboundMessage{Type: "evaluated", Payload: evaluatedPayload{
			QuestionIndex: ev.QuestionIndex,
			SelectedIndex: ev.SelectedIndex,
			Evaluation:    *ev.Evaluation,
		}}
	case app.EventFinished:
		return outboundMessage{Type: "finished", Payload: ev.Result}
	case app.EventStarted, app.EventQuestion:
		return outboundMessage{Type: "question", Payload: machine.Snapshot()}
	default:
		return outboundMessage{Type: "state", Payload: machine.Snapshot()}
	}
}

// wsConn queues outbound items for the writer goroutine. push never blocks
// once the connection is closing.
type wsConn struct {
	send   chan any
	closed chan struct{}
}

func (c *wsConn) push(item any) {
	select {
	case <-c.closed:
		return
	default:
	}
	select {
	case c.send <- item:
	case <-c.closed:
	}
}

func (c *wsConn) close() {
	close(c.closed)
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func stateMessage(machine *app.SessionMachine) *outboundMessage {
	return &outboundMessage{Type: "state", Payload: machine.Snapshot()}
}

func errorMessage(err error) *outboundMessage {
	return &outboundMessage{Type: "error", Payload: newErrorBody(err)}
}

func badPayload(typ string) *outboundMessage {
	return &outboundMessage{Type: "error", Payload: errorBody{Code: "bad_request", Message: "invalid " + typ + " payload"}}
}
