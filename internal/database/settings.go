package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

type settingsDocument struct {
	Key   string `bson:"_id"`
	Value string `bson:"value"`
}

const groupChatSettingKey = "group_chat_id"

// GetGroupChatID returns the stored helpdesk group chat route, or an
// empty string when none is configured.
func (m *MongoDB) GetGroupChatID(ctx context.Context) (string, error) {
	connection, err := m.connect()
	if err != nil {
		return "", err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(settingsCollection)

	filter := bson.D{{Key: "_id", Value: groupChatSettingKey}}

	var doc settingsDocument
	err = collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		return "", m.findError(err)
	}

	return doc.Value, nil
}
