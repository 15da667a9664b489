package repository

import (
	"context"
	"time"

	"github.com/Kultup/helpDesk-sub006/bot/chat"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SaveConversationState upserts a chat's registration state. created_at
// is written only on insert so the TTL clock is not reset by progress.
func (m *MongoDB) SaveConversationState(ctx context.Context, state *chat.ConversationState) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(conversationStatesCollection)

	state.UpdatedAt = time.Now()

	filter := bson.D{{Key: "chat_id", Value: state.ChatID}}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "workflow_id", Value: state.WorkflowID},
			{Key: "current_step", Value: state.CurrentStep},
			{Key: "fields", Value: state.Fields},
			{Key: "username", Value: state.Username},
			{Key: "updated_at", Value: state.UpdatedAt},
		}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "created_at", Value: state.CreatedAt},
		}},
	}
	opts := options.Update().SetUpsert(true)

	_, err = collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// LoadConversationState retrieves a chat's registration state.
func (m *MongoDB) LoadConversationState(ctx context.Context, chatID string) (*chat.ConversationState, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(conversationStatesCollection)

	filter := bson.D{{Key: "chat_id", Value: chatID}}

	var state chat.ConversationState
	err = collection.FindOne(ctx, filter).Decode(&state)
	if err != nil {
		// no stored state is not an error; resuming just starts fresh
		return nil, m.findError(err)
	}

	return &state, nil
}

// DeleteConversationState removes a chat's registration state.
func (m *MongoDB) DeleteConversationState(ctx context.Context, chatID string) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(conversationStatesCollection)

	filter := bson.D{{Key: "chat_id", Value: chatID}}

	_, err = collection.DeleteOne(ctx, filter)
	return err
}
