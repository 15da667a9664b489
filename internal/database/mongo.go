package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kultup/helpDesk-sub006/internal/config"
	"github.com/Kultup/helpDesk-sub006/internal/lib/sl"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection              = "users"
	citiesCollection             = "cities"
	institutionsCollection       = "institutions"
	positionsCollection          = "positions"
	positionRequestsCollection   = "position_requests"
	conversationStatesCollection = "conversation_states"
	ticketsCollection            = "tickets"
	settingsCollection           = "settings"
)

type MongoDB struct {
	ctx             context.Context
	clientOptions   *options.ClientOptions
	database        string
	registrationTTL time.Duration
	log             *slog.Logger
}

func NewMongoClient(conf *config.Config, logger *slog.Logger) (*MongoDB, error) {
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client := &MongoDB{
		ctx:             context.Background(),
		clientOptions:   clientOptions,
		database:        conf.Mongo.Database,
		registrationTTL: time.Duration(conf.Mongo.RegistrationTTLHours) * time.Hour,
		log:             logger.With(sl.Module("mongodb")),
	}
	return client, nil
}

func (m *MongoDB) connect() (*mongo.Client, error) {
	connection, err := mongo.Connect(m.ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect error: %w", err)
	}
	return connection, nil
}

func (m *MongoDB) disconnect(connection *mongo.Client) {
	_ = connection.Disconnect(m.ctx)
}

func (m *MongoDB) findError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	return fmt.Errorf("mongodb find error: %w", err)
}

// EnsureIndexes creates the indexes the bot relies on: a TTL index that
// expires abandoned registrations and the uniqueness of a chat's state.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	states := connection.Database(m.database).Collection(conversationStatesCollection)

	_, err = states.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "chat_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(m.registrationTTL.Seconds())),
		},
	})
	if err != nil {
		return fmt.Errorf("creating conversation state indexes: %w", err)
	}

	requests := connection.Database(m.database).Collection(positionRequestsCollection)
	_, err = requests.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "linked_conversation", Value: 1}, {Key: "status", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("creating position request index: %w", err)
	}

	m.log.Info("mongodb indexes ensured",
		slog.Duration("registration_ttl", m.registrationTTL),
	)
	return nil
}
