package slack

import (
	"fmt"
	"strconv"
	"strings"

	"daily-habits-tracker/internal/domain/entity"

	"github.com/google/uuid"
	slackapi "github.com/slack-go/slack"
)

const (
	// SummaryHeader is the first block of every summary
	SummaryHeader = "Today's habit statuses"

	// DoneMarker follows the name of a habit done for the logical day
	DoneMarker = ":check:"

	// MarkHabitActionID identifies the per-habit mark-done button
	MarkHabitActionID = "mark_habit"

	// AddHabitCallbackID identifies the add-habit modal submission
	AddHabitCallbackID = "add_habit"

	addHabitBlockID  = "habit_name"
	addHabitActionID = "habit_name_input"

	habitBlockPrefix = "habit:"
)

// BuildSummaryBlocks renders the header followed by one section per habit,
// in input order. Habits not done yet carry a button whose value is their
// positional index and whose block id names the habit id.
func BuildSummaryBlocks(statuses []entity.HabitStatus) []slackapi.Block {
	blocks := make([]slackapi.Block, 0, len(statuses)+1)
	blocks = append(blocks, slackapi.NewSectionBlock(
		slackapi.NewTextBlockObject(slackapi.MarkdownType, SummaryHeader, false, false),
		nil, nil,
	))

	for _, status := range statuses {
		blocks = append(blocks, habitBlock(status))
	}

	return blocks
}

func habitBlock(status entity.HabitStatus) *slackapi.SectionBlock {
	marker := ""
	if status.Done {
		marker = DoneMarker
	}
	text := slackapi.NewTextBlockObject(slackapi.MarkdownType, fmt.Sprintf("- %s %s", status.Name, marker), false, false)

	if status.Done {
		return slackapi.NewSectionBlock(text, nil, nil)
	}

	button := slackapi.NewButtonBlockElement(
		MarkHabitActionID,
		strconv.Itoa(status.Index),
		slackapi.NewTextBlockObject(slackapi.PlainTextType, DoneMarker, true, false),
	)

	return slackapi.NewSectionBlock(text, nil, slackapi.NewAccessory(button),
		slackapi.SectionBlockOptionBlockID(HabitBlockID(status.ID)))
}

// HabitBlockID is the block id attached to a pending habit's section
func HabitBlockID(id uuid.UUID) string {
	return habitBlockPrefix + id.String()
}

// ParseHabitBlockID extracts the habit id from a block id built by HabitBlockID
func ParseHabitBlockID(blockID string) (uuid.UUID, error) {
	raw, ok := strings.CutPrefix(blockID, habitBlockPrefix)
	if !ok {
		return uuid.Nil, fmt.Errorf("block id %q is not a habit block", blockID)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse habit id from block id %q: %w", blockID, err)
	}
	return id, nil
}

// ParseHabitIndex decodes a mark_habit button value
func ParseHabitIndex(value string) (int, error) {
	index, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("failed to parse habit index %q: %w", value, err)
	}
	return index, nil
}

// AddHabitModal is the view opened to collect a new habit name
func AddHabitModal() slackapi.ModalViewRequest {
	input := slackapi.NewInputBlock(
		addHabitBlockID,
		slackapi.NewTextBlockObject(slackapi.PlainTextType, "Habit", false, false),
		nil,
		slackapi.NewPlainTextInputBlockElement(
			slackapi.NewTextBlockObject(slackapi.PlainTextType, "e.g. Read 10 pages", false, false),
			addHabitActionID,
		),
	)

	return slackapi.ModalViewRequest{
		Type:       slackapi.VTModal,
		CallbackID: AddHabitCallbackID,
		Title:      slackapi.NewTextBlockObject(slackapi.PlainTextType, "Add habit", false, false),
		Submit:     slackapi.NewTextBlockObject(slackapi.PlainTextType, "Add", false, false),
		Close:      slackapi.NewTextBlockObject(slackapi.PlainTextType, "Cancel", false, false),
		Blocks: slackapi.Blocks{
			BlockSet: []slackapi.Block{input},
		},
	}
}

// SubmittedHabitName reads the habit name from an add_habit view submission
func SubmittedHabitName(callback *slackapi.InteractionCallback) (string, error) {
	if callback.View.State == nil {
		return "", fmt.Errorf("view submission has no state")
	}

	action, ok := callback.View.State.Values[addHabitBlockID][addHabitActionID]
	if !ok {
		return "", fmt.Errorf("view submission has no %s value", addHabitBlockID)
	}

	return action.Value, nil
}
