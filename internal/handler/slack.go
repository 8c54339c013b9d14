package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"daily-habits-tracker/internal/domain/entity"
	"daily-habits-tracker/internal/domain/service"
	"daily-habits-tracker/internal/infrastructure/slack"
	"daily-habits-tracker/internal/logger"

	slackapi "github.com/slack-go/slack"
)

const maxBodyBytes = 1 << 20

// SlackHandler handles Slack interactivity and slash command requests
type SlackHandler struct {
	habitService  service.HabitService
	gateway       service.ChatGateway
	signingSecret string
	timeout       time.Duration
}

// NewSlackHandler creates a new Slack handler. Requests are only signature
// checked when signingSecret is set.
func NewSlackHandler(habitService service.HabitService, gateway service.ChatGateway, signingSecret string, timeout time.Duration) *SlackHandler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &SlackHandler{
		habitService:  habitService,
		gateway:       gateway,
		signingSecret: signingSecret,
		timeout:       timeout,
	}
}

type reply struct {
	ResponseType string           `json:"response_type"`
	Text         string           `json:"text"`
	Blocks       []slackapi.Block `json:"blocks,omitempty"`
}

// Actions handles block_actions and view_submission payloads
func (h *SlackHandler) Actions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.verify(w, r) {
		return
	}

	var callback slackapi.InteractionCallback
	if err := json.Unmarshal([]byte(r.PostFormValue("payload")), &callback); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	switch callback.Type {
	case slackapi.InteractionTypeBlockActions:
		for _, action := range callback.ActionCallback.BlockActions {
			if action.ActionID == slack.MarkHabitActionID {
				h.markFromButton(ctx, action)
			}
		}
		w.WriteHeader(http.StatusOK)

	case slackapi.InteractionTypeViewSubmission:
		if callback.View.CallbackID != slack.AddHabitCallbackID {
			w.WriteHeader(http.StatusOK)
			return
		}
		name, err := slack.SubmittedHabitName(&callback)
		if err != nil {
			http.Error(w, "Invalid submission", http.StatusBadRequest)
			return
		}
		if _, err := h.habitService.AddHabit(ctx, name); err != nil {
			logger.Error("failed to add habit from modal", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)

	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (h *SlackHandler) markFromButton(ctx context.Context, action *slackapi.BlockAction) {
	index, err := slack.ParseHabitIndex(action.Value)
	if err != nil {
		logger.Warn("ignoring mark_habit action", "error", err)
		return
	}
	id, err := slack.ParseHabitBlockID(action.BlockID)
	if err != nil {
		logger.Warn("ignoring mark_habit action", "error", err)
		return
	}

	habit, changed, err := h.habitService.MarkHabitAsDoneChecked(ctx, index, id)
	switch {
	case errors.Is(err, entity.ErrStaleIndex), errors.Is(err, entity.ErrIndexOutOfRange):
		logger.Warn("stale mark_habit click", "index", index, "habit_id", id, "error", err)
	case err != nil:
		logger.Error("failed to mark habit done", "index", index, "error", err)
	default:
		logger.Info("habit marked done", "name", habit.Name, "streak", habit.Streak, "changed", changed)
	}
}

// Commands handles the slash command
func (h *SlackHandler) Commands(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.verify(w, r) {
		return
	}

	slash, err := slackapi.SlashCommandParse(r)
	if err != nil {
		http.Error(w, "Invalid command", http.StatusBadRequest)
		return
	}

	cmd, err := parseCommand(slash.Text)
	if err != nil {
		writeReply(w, reply{Text: fmt.Sprintf("%v. %s", err, usage)})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	// The trigger id expires within seconds, so the modal goes first
	if cmd.kind == cmdOpenModal {
		if err := h.gateway.OpenModal(ctx, slash.TriggerID, slack.AddHabitModal(), false); err != nil {
			logger.Error("failed to open add habit modal", "error", err)
			writeReply(w, reply{Text: "Could not open the add habit dialog, try `add <name>`."})
			return
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	text, blocks, err := h.run(ctx, cmd)
	if err != nil {
		if errors.Is(err, entity.ErrIndexOutOfRange) {
			writeReply(w, reply{Text: fmt.Sprintf("There is no habit at index %d.", cmd.index)})
			return
		}
		logger.Error("slash command failed", "text", slash.Text, "error", err)
		writeReply(w, reply{Text: "Something went wrong, please try again."})
		return
	}

	writeReply(w, reply{Text: text, Blocks: blocks})
}

func (h *SlackHandler) run(ctx context.Context, cmd command) (string, []slackapi.Block, error) {
	switch cmd.kind {
	case cmdAdd:
		habit, err := h.habitService.AddHabit(ctx, cmd.name)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("Added *%s* at index %d.", habit.Name, habit.Position), nil, nil

	case cmdRename:
		if err := h.habitService.RenameHabit(ctx, cmd.index, cmd.name); err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("Renamed habit %d to *%s*.", cmd.index, cmd.name), nil, nil

	case cmdDelete:
		if err := h.habitService.DeleteHabit(ctx, cmd.index); err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("Deleted habit %d. Later habits moved up by one.", cmd.index), nil, nil

	case cmdDone:
		habit, changed, err := h.habitService.MarkHabitAsDone(ctx, cmd.index)
		if err != nil {
			return "", nil, err
		}
		if !changed {
			return fmt.Sprintf("*%s* is already done today.", habit.Name), nil, nil
		}
		return fmt.Sprintf("Marked *%s* done. Streak: %d.", habit.Name, habit.Streak), nil, nil

	case cmdList:
		statuses, err := h.habitService.ListHabits(ctx)
		if err != nil {
			return "", nil, err
		}
		return slack.SummaryHeader, slack.BuildSummaryBlocks(statuses), nil
	}

	return usage, nil, nil
}

// verify checks the Slack request signature and leaves the body readable
func (h *SlackHandler) verify(w http.ResponseWriter, r *http.Request) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return false
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	if h.signingSecret == "" {
		return true
	}

	sv, err := slackapi.NewSecretsVerifier(r.Header, h.signingSecret)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return false
	}
	if _, err := sv.Write(body); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return false
	}
	if err := sv.Ensure(); err != nil {
		logger.Warn("rejected unsigned slack request", "path", r.URL.Path, "error", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return false
	}

	return true
}

func writeReply(w http.ResponseWriter, msg reply) {
	msg.ResponseType = slackapi.ResponseTypeEphemeral

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(msg)
}
