package repository

import (
	"context"
	"strings"

	"github.com/Kultup/helpDesk-sub006/entity"

	"go.mongodb.org/mongo-driver/bson"
)

func (m *MongoDB) UserExistsByEmail(ctx context.Context, email string) (bool, error) {
	return m.userExists(ctx, bson.D{{Key: "email", Value: strings.ToLower(email)}})
}

func (m *MongoDB) UserExistsByLogin(ctx context.Context, login string) (bool, error) {
	return m.userExists(ctx, bson.D{{Key: "login", Value: strings.ToLower(login)}})
}

func (m *MongoDB) userExists(ctx context.Context, filter bson.D) (bool, error) {
	connection, err := m.connect()
	if err != nil {
		return false, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(usersCollection)

	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// GetAdminsWithChat returns administrators reachable over Telegram.
func (m *MongoDB) GetAdminsWithChat(ctx context.Context) ([]entity.User, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(usersCollection)

	filter := bson.D{
		{Key: "role", Value: entity.AdminRole},
		{Key: "telegram_chat_id", Value: bson.D{{Key: "$nin", Value: bson.A{"", nil}}}},
	}

	cursor, err := collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	var admins []entity.User
	if err = cursor.All(ctx, &admins); err != nil {
		return nil, err
	}

	return admins, nil
}

// IsAdminChat reports whether the chat belongs to an administrator.
func (m *MongoDB) IsAdminChat(ctx context.Context, chatID string) (bool, error) {
	connection, err := m.connect()
	if err != nil {
		return false, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(usersCollection)

	filter := bson.D{
		{Key: "telegram_chat_id", Value: chatID},
		{Key: "role", Value: entity.AdminRole},
	}

	var user entity.User
	err = collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		return false, m.findError(err)
	}

	return true, nil
}
