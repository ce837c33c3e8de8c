package firebase

import (
	"WeChat/entity"
	"WeChat/internal/config"
	"WeChat/internal/feed"
	"WeChat/internal/lib/sl"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"cloud.google.com/go/firestore"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	usersCollection         = "users"
	conversationsCollection = "conversations"
	messagesCollection      = "messages"

	datastoreScope = "https://www.googleapis.com/auth/datastore"
)

// Store keeps profiles, conversations and messages in Firestore. Messages
// live in the messages sub-collection of their conversation.
type Store struct {
	client *firestore.Client
	log    *slog.Logger
}

func NewStore(ctx context.Context, conf *config.Config, logger *slog.Logger) (*Store, error) {
	var opts []option.ClientOption
	if path := conf.Firebase.CredentialsFile; path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read credentials: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, datastoreScope)
		if err != nil {
			return nil, fmt.Errorf("parse credentials: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}

	client, err := firestore.NewClient(ctx, conf.Firebase.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &Store{
		client: client,
		log:    logger.With(sl.Module("firebase.store")),
	}, nil
}

func (s *Store) Close(_ context.Context) error {
	return s.client.Close()
}

func (s *Store) GetProfile(ctx context.Context, uid string) (*entity.Profile, error) {
	snap, err := s.client.Collection(usersCollection).Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("firestore get profile: %w", err)
	}
	return decodeProfile(snap)
}

// CreateProfile writes the whole document; zero timestamps become server timestamps.
func (s *Store) CreateProfile(ctx context.Context, profile *entity.Profile) error {
	_, err := s.client.Collection(usersCollection).Doc(profile.UID).Set(ctx, profile)
	if err != nil {
		return fmt.Errorf("firestore set profile: %w", err)
	}
	return nil
}

func (s *Store) SetPresence(ctx context.Context, uid string, online bool) error {
	_, err := s.client.Collection(usersCollection).Doc(uid).Update(ctx, []firestore.Update{
		{Path: "online", Value: online},
		{Path: "lastSeen", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return fmt.Errorf("firestore update presence: %w", err)
	}
	return nil
}

func (s *Store) profilesQuery() firestore.Query {
	return s.client.Collection(usersCollection).OrderBy("name", firestore.Asc)
}

func (s *Store) ListProfiles(ctx context.Context) ([]entity.Profile, error) {
	docs, err := s.profilesQuery().Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestore list profiles: %w", err)
	}
	return decodeAll(docs, decodeProfile)
}

func (s *Store) WatchProfiles(ctx context.Context) *feed.Feed[entity.Profile] {
	return watchQuery(ctx, s.profilesQuery(), decodeProfile)
}

func (s *Store) GetConversation(ctx context.Context, id string) (*entity.Conversation, error) {
	snap, err := s.client.Collection(conversationsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("firestore get conversation: %w", err)
	}
	var conversation entity.Conversation
	if err := snap.DataTo(&conversation); err != nil {
		return nil, fmt.Errorf("firestore decode conversation: %w", err)
	}
	conversation.ID = snap.Ref.ID
	return &conversation, nil
}

// CreateConversation creates the document unless the other participant
// already did.
func (s *Store) CreateConversation(ctx context.Context, conversation *entity.Conversation) error {
	_, err := s.client.Collection(conversationsCollection).Doc(conversation.ID).Create(ctx, conversation)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil
		}
		return fmt.Errorf("firestore create conversation: %w", err)
	}
	return nil
}

func (s *Store) UpdateConversationPreview(ctx context.Context, id, text string) error {
	_, err := s.client.Collection(conversationsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "lastMessage", Value: text},
		{Path: "lastMessageTime", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return fmt.Errorf("firestore update conversation preview: %w", err)
	}
	return nil
}

func (s *Store) messages(conversationID string) *firestore.CollectionRef {
	return s.client.Collection(conversationsCollection).Doc(conversationID).Collection(messagesCollection)
}

// AddMessage appends the message under an auto id. The server timestamp is
// not known locally, so message.Timestamp stays zero.
func (s *Store) AddMessage(ctx context.Context, message *entity.Message) error {
	ref, _, err := s.messages(message.ConversationID).Add(ctx, message)
	if err != nil {
		return fmt.Errorf("firestore add message: %w", err)
	}
	message.ID = ref.ID
	return nil
}

func (s *Store) messagesQuery(conversationID string) firestore.Query {
	return s.messages(conversationID).OrderBy("timestamp", firestore.Asc)
}

func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]entity.Message, error) {
	docs, err := s.messagesQuery(conversationID).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestore list messages: %w", err)
	}
	return decodeAll(docs, messageDecoder(conversationID))
}

func (s *Store) WatchMessages(ctx context.Context, conversationID string) *feed.Feed[entity.Message] {
	return watchQuery(ctx, s.messagesQuery(conversationID), messageDecoder(conversationID))
}

// watchQuery turns a Firestore snapshot listener into a feed. Each query
// snapshot carries the complete ordered result set.
func watchQuery[T any](ctx context.Context, query firestore.Query, decode func(*firestore.DocumentSnapshot) (*T, error)) *feed.Feed[T] {
	return feed.Start(ctx, func(ctx context.Context, emit feed.Emit[T]) {
		it := query.Snapshots(ctx)
		defer it.Stop()

		for {
			qs, err := it.Next()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled {
					return
				}
				emit(feed.Snapshot[T]{Err: fmt.Errorf("firestore listen: %w", err)})
				return
			}

			docs, err := qs.Documents.GetAll()
			if err != nil {
				emit(feed.Snapshot[T]{Err: fmt.Errorf("firestore snapshot documents: %w", err)})
				return
			}
			items, err := decodeAll(docs, decode)
			if !emit(feed.Snapshot[T]{Items: items, Err: err}) || err != nil {
				return
			}
		}
	})
}

func decodeAll[T any](docs []*firestore.DocumentSnapshot, decode func(*firestore.DocumentSnapshot) (*T, error)) ([]T, error) {
	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		item, err := decode(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

func decodeProfile(snap *firestore.DocumentSnapshot) (*entity.Profile, error) {
	var profile entity.Profile
	if err := snap.DataTo(&profile); err != nil {
		return nil, fmt.Errorf("firestore decode profile %s: %w", snap.Ref.ID, err)
	}
	if profile.UID == "" {
		profile.UID = snap.Ref.ID
	}
	return &profile, nil
}

func messageDecoder(conversationID string) func(*firestore.DocumentSnapshot) (*entity.Message, error) {
	return func(snap *firestore.DocumentSnapshot) (*entity.Message, error) {
		var message entity.Message
		if err := snap.DataTo(&message); err != nil {
			return nil, fmt.Errorf("firestore decode message %s: %w", snap.Ref.ID, err)
		}
		message.ID = snap.Ref.ID
		message.ConversationID = conversationID
		return &message, nil
	}
}
