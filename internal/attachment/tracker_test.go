package attachment

import (
	"testing"

	"github.com/m2tx/chat_orchestrator/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var report = &model.Attachment{
	FileName:    "report.pdf",
	FileType:    "application/pdf",
	FileSize:    20480,
	FileContent: "data:application/pdf;base64,JVBERi0=",
}

func userText(text string) model.Turn {
	return model.Turn{Role: model.RoleUser, Parts: []model.Part{model.NewText(text)}}
}

func assistantText(text string) model.Turn {
	return model.Turn{Role: model.RoleAssistant, Parts: []model.Part{model.NewText(text)}}
}

func upload(a *model.Attachment) model.Turn {
	return model.Turn{Role: model.RoleUser, Metadata: a}
}

func TestTrackDecisionTable(t *testing.T) {
	ack := assistantText(AcknowledgmentMessage(*report))

	tests := []struct {
		name         string
		history      []model.Turn
		action       Action
		acknowledged bool
		followUp     int
	}{
		{
			name:    "no attachment",
			history: []model.Turn{userText("hello")},
			action:  ActionComplete,
		},
		{
			name:     "fresh upload",
			history:  []model.Turn{userText("hi"), upload(report)},
			action:   ActionAcknowledge,
			followUp: -1,
		},
		{
			name:     "unacknowledged, follow-up without intent",
			history:  []model.Turn{upload(report), userText("what's the weather?")},
			action:   ActionAcknowledge,
			followUp: 1,
		},
		{
			name:     "unacknowledged, follow-up with intent",
			history:  []model.Turn{upload(report), userText("please analyze this")},
			action:   ActionAnalyze,
			followUp: 1,
		},
		{
			name:         "acknowledged, follow-up with intent",
			history:      []model.Turn{upload(report), ack, userText("3")},
			action:       ActionAnalyze,
			acknowledged: true,
			followUp:     2,
		},
		{
			name:         "acknowledged, follow-up without intent",
			history:      []model.Turn{upload(report), ack, userText("thanks!")},
			action:       ActionComplete,
			acknowledged: true,
			followUp:     2,
		},
		{
			name:         "acknowledged, no follow-up",
			history:      []model.Turn{upload(report), ack},
			action:       ActionComplete,
			acknowledged: true,
			followUp:     -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Track(tt.history)
			assert.Equal(t, tt.action, d.Action, d.Action.String())
			assert.Equal(t, tt.acknowledged, d.Acknowledged)
			if d.Anchor >= 0 {
				assert.Equal(t, tt.followUp, d.FollowUp)
			}
		})
	}
}

func TestTrackUsesNewestAttachment(t *testing.T) {
	notes := &model.Attachment{FileName: "notes.txt", FileType: "text/plain", FileSize: 10, FileContent: "aGVsbG8="}
	history := []model.Turn{
		upload(report),
		assistantText(AcknowledgmentMessage(*report)),
		upload(notes),
	}

	d := Track(history)
	require.Equal(t, 2, d.Anchor)
	assert.Equal(t, "notes.txt", d.Attachment.FileName)
	assert.False(t, d.Acknowledged, "receipt of an earlier file does not count")
	assert.Equal(t, ActionAcknowledge, d.Action)
}

func TestTrackIgnoresAcknowledgmentBeforeAnchor(t *testing.T) {
	history := []model.Turn{
		assistantText(`Received "report.pdf" earlier`),
		upload(report),
	}
	d := Track(history)
	assert.False(t, d.Acknowledged)
	assert.Equal(t, ActionAcknowledge, d.Action)
}

func TestTrackOnlyAssistantTextCountsAsAcknowledgment(t *testing.T) {
	history := []model.Turn{
		upload(report),
		userText(`Received "report.pdf"`),
		{Role: model.RoleAssistant, Parts: []model.Part{model.NewReasoning(`Received "report.pdf"`)}},
	}
	d := Track(history)
	assert.False(t, d.Acknowledged)
	assert.Equal(t, ActionAcknowledge, d.Action)
}

func TestTrackUsesLatestFollowUp(t *testing.T) {
	history := []model.Turn{
		upload(report),
		userText("analyze it"),
		assistantText("Document analysis for \"report.pdf\": ..."),
		userText("ok thanks"),
	}
	d := Track(history)
	assert.Equal(t, 3, d.FollowUp)
	assert.False(t, d.Intent)
	assert.Equal(t, ActionAcknowledge, d.Action)
}

func TestTrackFallbackName(t *testing.T) {
	anon := &model.Attachment{FileContent: "aGk="}
	history := []model.Turn{upload(anon), assistantText(`Received "uploaded-file" (0 KB, unknown).`)}

	d := Track(history)
	assert.True(t, d.Acknowledged)
	assert.Equal(t, ActionComplete, d.Action)
}

func TestHasIntent(t *testing.T) {
	for _, text := range []string{"Analyze this", "can you analyse it", "ANALYSIS please", "run ocr", "OCR", "3", "option 3 please", "I have 30 apples"} {
		assert.True(t, HasIntent(text), text)
	}
	for _, text := range []string{"", "hello", "summarize", "the process is done", "1"} {
		assert.False(t, HasIntent(text), text)
	}
}

func TestAcknowledgmentMessage(t *testing.T) {
	msg := AcknowledgmentMessage(*report)

	assert.Contains(t, msg, `Received "report.pdf" (20 KB, application/pdf).`)
	assert.Contains(t, msg, "1. Summarize text")
	assert.Contains(t, msg, "2. Run OCR (optical character recognition)")
	assert.Contains(t, msg, "3. Analyze images")
	assert.Contains(t, msg, "4. Extract tables")

	anon := AcknowledgmentMessage(model.Attachment{FileSize: 1536})
	assert.Contains(t, anon, `Received "uploaded-file" (2 KB, unknown).`)
}

func TestKiB(t *testing.T) {
	assert.Equal(t, int64(0), KiB(0))
	assert.Equal(t, int64(0), KiB(511))
	assert.Equal(t, int64(1), KiB(512))
	assert.Equal(t, int64(1), KiB(1024))
	assert.Equal(t, int64(2), KiB(1536))
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{name: "data uri", content: "data:text/plain;base64,aGVsbG8=", want: "hello"},
		{name: "bare base64", content: "aGVsbG8=", want: "hello"},
		{name: "unpadded", content: "aGVsbG8", want: "hello"},
		{name: "payload with comma-free header", content: "data:;base64,aGk=", want: "hi"},
		{name: "no comma", content: "data:text/plain;base64", wantErr: true},
		{name: "garbage", content: "!!!", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}
