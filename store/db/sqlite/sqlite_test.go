package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunzhuo/teatalk/internal/profile"
	"github.com/sunzhuo/teatalk/store"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	driver, err := NewDB(&profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "teatalk_test.db"),
	})
	require.NoError(t, err)
	db := driver.(*DB)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func stringp(v string) *string { return &v }
func int64p(v int64) *int64    { return &v }

func TestConversationRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created, err := db.CreateConversation(ctx, &store.Conversation{
		UID:         "abc123",
		Name:        "New chat",
		AssistantID: int64p(7),
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	loaded, err := db.GetConversation(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, "abc123", loaded.UID)
	require.Equal(t, "New chat", loaded.Name)
	require.NotNil(t, loaded.AssistantID)
	require.Equal(t, int64(7), *loaded.AssistantID)

	require.NoError(t, db.UpdateConversationName(ctx, created.ID, "Renamed"))
	loaded, err = db.GetConversation(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", loaded.Name)

	missing, err := db.GetConversation(ctx, 9999)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestMessageRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	conversation, err := db.CreateConversation(ctx, &store.Conversation{UID: "c1", Name: "chat"})
	require.NoError(t, err)

	parent, err := db.CreateMessage(ctx, &store.Message{
		ConversationID: conversation.ID,
		Role:           store.RoleUser,
		Content:        "question",
	})
	require.NoError(t, err)

	child, err := db.CreateMessage(ctx, &store.Message{
		ParentID:       &parent.ID,
		ConversationID: conversation.ID,
		Role:           store.RoleAssistant,
		Content:        "",
		ModelID:        int64p(3),
		ModelName:      stringp("gpt-4o"),
	})
	require.NoError(t, err)

	require.NoError(t, db.UpdateMessageStartTime(ctx, child.ID))
	require.NoError(t, db.UpdateMessage(ctx, &store.UpdateMessage{
		ID:         child.ID,
		Content:    stringp("answer"),
		TokenCount: func() *int32 { v := int32(2); return &v }(),
	}))
	require.NoError(t, db.UpdateMessageFinishTime(ctx, child.ID))

	loaded, err := db.GetMessage(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, "answer", loaded.Content)
	require.Equal(t, int32(2), loaded.TokenCount)
	require.NotNil(t, loaded.ParentID)
	require.Equal(t, parent.ID, *loaded.ParentID)
	require.NotNil(t, loaded.StartTs)
	require.NotNil(t, loaded.FinishTs)
	require.NotNil(t, loaded.ModelName)
	require.Equal(t, "gpt-4o", *loaded.ModelName)

	pairs, err := db.ListMessagesByConversationID(ctx, conversation.ID)
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	require.Equal(t, parent.ID, pairs[0].Message.ID)
	require.Equal(t, child.ID, pairs[1].Message.ID)
	require.Nil(t, pairs[0].Attachment)
}

func TestAttachmentBinding(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	conversation, err := db.CreateConversation(ctx, &store.Conversation{UID: "c1", Name: "chat"})
	require.NoError(t, err)
	message, err := db.CreateMessage(ctx, &store.Message{
		ConversationID: conversation.ID,
		Role:           store.RoleUser,
		Content:        "with file",
	})
	require.NoError(t, err)

	attachment, err := db.CreateAttachment(ctx, &store.Attachment{
		Type:    store.AttachmentTypeText,
		URL:     stringp("notes.txt"),
		Content: stringp("inline text"),
	})
	require.NoError(t, err)
	require.Equal(t, store.UnattachedMessageID, attachment.MessageID)

	require.NoError(t, db.BindAttachmentToMessage(ctx, attachment.ID, message.ID))

	list, err := db.ListAttachmentsByIDs(ctx, []int64{attachment.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, message.ID, list[0].MessageID)
	require.Equal(t, "inline text", *list[0].Content)

	empty, err := db.ListAttachmentsByIDs(ctx, nil)
	require.NoError(t, err)
	require.Nil(t, empty)

	pairs, err := db.ListMessagesByConversationID(ctx, conversation.ID)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	require.NotNil(t, pairs[0].Attachment)
	require.Equal(t, attachment.ID, pairs[0].Attachment.ID)
}

func TestAssistantQueries(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	res, err := db.GetDB().ExecContext(ctx, "INSERT INTO assistant (name, description) VALUES ('helper', 'test assistant')")
	require.NoError(t, err)
	assistantID, err := res.LastInsertId()
	require.NoError(t, err)

	_, err = db.GetDB().ExecContext(ctx,
		"INSERT INTO assistant_prompt (assistant_id, prompt) VALUES (?, 'You are {{name}}.')", assistantID)
	require.NoError(t, err)
	res, err = db.GetDB().ExecContext(ctx,
		"INSERT INTO assistant_model (assistant_id, provider_id, model_code) VALUES (?, 1, 'gpt-4o')", assistantID)
	require.NoError(t, err)
	modelBindingID, err := res.LastInsertId()
	require.NoError(t, err)
	_, err = db.GetDB().ExecContext(ctx,
		"INSERT INTO assistant_model_config (assistant_id, assistant_model_id, name, value, value_type) VALUES (?, ?, 'temperature', '0.7', 'number')",
		assistantID, modelBindingID)
	require.NoError(t, err)

	assistant, err := db.GetAssistant(ctx, assistantID)
	require.NoError(t, err)
	require.NotNil(t, assistant)
	require.Equal(t, "helper", assistant.Name)

	prompts, err := db.ListAssistantPrompts(ctx, assistantID)
	require.NoError(t, err)
	require.Len(t, prompts, 1)
	require.Equal(t, "You are {{name}}.", prompts[0].Prompt)

	models, err := db.ListAssistantModels(ctx, assistantID)
	require.NoError(t, err)
	require.Len(t, models, 1)
	require.Equal(t, "gpt-4o", models[0].ModelCode)

	configs, err := db.ListAssistantModelConfigs(ctx, assistantID)
	require.NoError(t, err)
	require.Len(t, configs, 1)
	require.Equal(t, store.ConfigValueTypeNumber, configs[0].ValueType)
}

func TestGetModelDetail(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	res, err := db.GetDB().ExecContext(ctx, "INSERT INTO provider (name, api_type) VALUES ('openai', 'openai')")
	require.NoError(t, err)
	providerID, err := res.LastInsertId()
	require.NoError(t, err)
	_, err = db.GetDB().ExecContext(ctx,
		"INSERT INTO provider_config (provider_id, name, value) VALUES (?, 'api_key', 'sk-test')", providerID)
	require.NoError(t, err)
	_, err = db.GetDB().ExecContext(ctx,
		"INSERT INTO model (provider_id, code, name) VALUES (?, 'gpt-4o', 'GPT-4o')", providerID)
	require.NoError(t, err)

	detail, err := db.GetModelDetail(ctx, providerID, "gpt-4o")
	require.NoError(t, err)
	require.NotNil(t, detail)
	require.Equal(t, "GPT-4o", detail.Model.Name)
	require.Equal(t, "openai", detail.Provider.APIType)
	require.Len(t, detail.Configs, 1)
	require.Equal(t, "sk-test", detail.Configs[0].Value)

	missing, err := db.GetModelDetail(ctx, providerID, "nope")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestGetFeatureConfig(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for key, value := range map[string]string{
		"provider_id":    "1",
		"model_code":     "gpt-4o-mini",
		"prompt":         "You name conversations.",
		"summary_length": "-1",
	} {
		_, err := db.GetDB().ExecContext(ctx,
			"INSERT INTO feature_config (feature_code, key, value) VALUES ('conversation_summary', ?, ?)", key, value)
		require.NoError(t, err)
	}

	config, err := db.GetFeatureConfig(ctx, store.FeatureCodeConversationSummary)
	require.NoError(t, err)
	require.Equal(t, "gpt-4o-mini", config["model_code"])
	require.Equal(t, "-1", config["summary_length"])

	empty, err := db.GetFeatureConfig(ctx, "unknown_feature")
	require.NoError(t, err)
	require.Empty(t, empty)
}
