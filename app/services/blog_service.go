package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"blogledger/app/events"
	"blogledger/app/models"
	"blogledger/app/pda"
	"blogledger/app/repositories"
)

// BlogService implements the record-store operations. Every mutation runs
// inside one store transaction, checks all preconditions before writing,
// and publishes its notification only after the transaction commits.
type BlogService struct {
	store     repositories.AccountStore
	deriver   pda.Deriver
	publisher events.Publisher
	clock     func() time.Time
	logger    *slog.Logger
}

type Option func(*BlogService)

// WithClock overrides the time source used for record timestamps
func WithClock(clock func() time.Time) Option {
	return func(s *BlogService) {
		s.clock = clock
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *BlogService) {
		s.logger = logger
	}
}

// NewBlogService creates a new BlogService. publisher may be nil.
func NewBlogService(
	store repositories.AccountStore,
	deriver pda.Deriver,
	publisher events.Publisher,
	opts ...Option,
) *BlogService {
	s := &BlogService{
		store:     store,
		deriver:   deriver,
		publisher: publisher,
		clock:     time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "blog")
	return s
}

// Deriver returns the address deriver the service verifies against
func (s *BlogService) Deriver() pda.Deriver {
	return s.deriver
}

// InitializeBlog creates the caller's Blog. A second call for the same
// author fails with ErrAlreadyExists.
func (s *BlogService) InitializeBlog(ctx context.Context, author models.Pubkey) (pda.Ref, error) {
	ref, err := s.deriver.Blog(author)
	if err != nil {
		return pda.Ref{}, err
	}
	blog := models.Blog{Author: author, PostCount: 0}
	data, err := blog.MarshalBinary()
	if err != nil {
		return pda.Ref{}, err
	}
	err = s.store.Update(ctx, func(txn repositories.AccountTxn) error {
		return txn.Create(ref.Address, models.BlogSpace, data)
	})
	if err != nil {
		return pda.Ref{}, err
	}
	s.logger.Info("blog initialized", "author", author.String(), "address", ref.Address.String())
	s.publish(events.BlogInitializedEventType, events.BlogInitialized{Author: author})
	return ref, nil
}

// InitializeProfile creates the caller's Profile, stamped with the current time
func (s *BlogService) InitializeProfile(
	ctx context.Context,
	author models.Pubkey,
	displayName, bio, avatarURL string,
) (pda.Ref, error) {
	ref, err := s.deriver.Profile(author)
	if err != nil {
		return pda.Ref{}, err
	}
	profile := models.Profile{
		Author:      author,
		DisplayName: displayName,
		Bio:         bio,
		AvatarURL:   avatarURL,
		JoinedAt:    s.now(),
	}
	space := models.ProfileSpace(displayName, bio, avatarURL)
	data, err := profile.MarshalBinary()
	if err != nil {
		return pda.Ref{}, err
	}
	err = s.store.Update(ctx, func(txn repositories.AccountTxn) error {
		return txn.Create(ref.Address, space, data)
	})
	if err != nil {
		return pda.Ref{}, err
	}
	s.logger.Info("profile initialized", "author", author.String(), "space", space)
	s.publish(events.ProfileInitializedEventType, events.ProfileInitialized{Author: author})
	return ref, nil
}

// CreatePost appends a post to the author's blog and returns its id, which
// is the blog's post count before the call.
func (s *BlogService) CreatePost(
	ctx context.Context,
	author models.Pubkey,
	title, content string,
) (uint64, pda.Ref, error) {
	if err := checkInput(createPostInput{Title: title, Content: content}, nil); err != nil {
		return 0, pda.Ref{}, err
	}
	blogRef, err := s.deriver.Blog(author)
	if err != nil {
		return 0, pda.Ref{}, err
	}
	space := models.PostSpace(title, content)
	var postID uint64
	var postRef pda.Ref
	err = s.store.Update(ctx, func(txn repositories.AccountTxn) error {
		blog, err := load[models.Blog](txn, blogRef.Address)
		if err != nil {
			return err
		}
		if blog.Author != author {
			return ErrUnauthorized
		}
		id, next, err := blog.NextPostID()
		if err != nil {
			return fmt.Errorf("%w: post_count", ErrNumericalOverflow)
		}
		postRef, err = s.deriver.Post(author, id)
		if err != nil {
			return err
		}
		now := s.now()
		post := models.Post{
			Author:       author,
			PostID:       id,
			Title:        title,
			Content:      content,
			CreatedAt:    now,
			UpdatedAt:    now,
			CommentCount: 0,
		}
		data, err := post.MarshalBinary()
		if err != nil {
			return err
		}
		if err := txn.Create(postRef.Address, space, data); err != nil {
			return err
		}
		blog.PostCount = next
		if err := writeRecord(txn, blogRef.Address, blog); err != nil {
			return err
		}
		postID = id
		return nil
	})
	if err != nil {
		return 0, pda.Ref{}, err
	}
	s.logger.Info(
		"post created",
		"author", author.String(),
		"post_id", postID,
		"address", postRef.Address.String(),
		"space", space,
	)
	s.publish(events.PostCreatedEventType, events.PostCreated{Author: author, PostID: postID})
	return postID, postRef, nil
}

// UpdatePost replaces the supplied fields of a post in place and refreshes
// updated_at. The post keeps the allocation it was created with; text that
// would not fit fails with ErrCapacityExceeded.
func (s *BlogService) UpdatePost(
	ctx context.Context,
	caller models.Pubkey,
	ref pda.Ref,
	newTitle, newContent *string,
) (*models.Post, error) {
	var updated *models.Post
	err := s.store.Update(ctx, func(txn repositories.AccountTxn) error {
		post, err := s.loadPost(txn, ref)
		if err != nil {
			return err
		}
		if post.Author != caller {
			return ErrUnauthorized
		}
		in := updatePostInput{}
		if newTitle != nil {
			in.Title = *newTitle
		}
		if newContent != nil {
			in.Content = *newContent
		}
		if err := checkInput(in, nil); err != nil {
			return err
		}
		if newTitle != nil {
			post.Title = *newTitle
		}
		if newContent != nil {
			post.Content = *newContent
		}
		post.Touch(s.now())
		if err := post.Validate(); err != nil {
			return err
		}
		if err := writeRecord(txn, ref.Address, post); err != nil {
			return capacityError(err)
		}
		updated = post
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("post updated", "author", updated.Author.String(), "post_id", updated.PostID)
	s.publish(events.PostUpdatedEventType, events.PostUpdated{Author: updated.Author, PostID: updated.PostID})
	return updated, nil
}

// DeletePost removes a post and frees its storage. The blog's post count is
// not touched, so the id is never handed out again.
func (s *BlogService) DeletePost(ctx context.Context, caller models.Pubkey, ref pda.Ref) error {
	var deleted *models.Post
	var freed uint64
	err := s.store.Update(ctx, func(txn repositories.AccountTxn) error {
		post, err := s.loadPost(txn, ref)
		if err != nil {
			return err
		}
		if post.Author != caller {
			return ErrUnauthorized
		}
		freed, err = txn.Close(ref.Address)
		if err != nil {
			return err
		}
		deleted = post
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info(
		"post deleted",
		"author", deleted.Author.String(),
		"post_id", deleted.PostID,
		"freed", freed,
	)
	s.publish(events.PostDeletedEventType, events.PostDeleted{Author: deleted.Author, PostID: deleted.PostID})
	return nil
}

// CreateComment attaches a comment to the post at postRef and returns its
// id, which is the post's comment count before the call.
func (s *BlogService) CreateComment(
	ctx context.Context,
	commenter models.Pubkey,
	postRef pda.Ref,
	content string,
) (uint64, pda.Ref, error) {
	in := createCommentInput{Content: content}
	if err := checkInput(in, map[string]error{"Content": ErrCommentTooLong}); err != nil {
		return 0, pda.Ref{}, err
	}
	space := models.CommentSpace(content)
	var comment models.Comment
	var commentRef pda.Ref
	err := s.store.Update(ctx, func(txn repositories.AccountTxn) error {
		post, err := s.loadPost(txn, postRef)
		if err != nil {
			return err
		}
		comment = models.Comment{
			Commenter: commenter,
			Content:   content,
			CreatedAt: s.now(),
		}
		commentRef, err = s.deriver.Comment(post.Author, post.PostID, post.CommentCount)
		if err != nil {
			return err
		}
		if err := comment.SetPost(post); err != nil {
			if errors.Is(err, models.ErrCounterOverflow) {
				return fmt.Errorf("%w: comment_count", ErrNumericalOverflow)
			}
			return err
		}
		data, err := comment.MarshalBinary()
		if err != nil {
			return err
		}
		if err := txn.Create(commentRef.Address, space, data); err != nil {
			return err
		}
		return writeRecord(txn, postRef.Address, post)
	})
	if err != nil {
		return 0, pda.Ref{}, err
	}
	s.logger.Info(
		"comment created",
		"commenter", commenter.String(),
		"post_author", comment.PostAuthor.String(),
		"post_id", comment.PostID,
		"comment_id", comment.CommentID,
	)
	s.publish(events.CommentCreatedEventType, events.CommentCreated{
		Commenter:  comment.Commenter,
		PostAuthor: comment.PostAuthor,
		PostID:     comment.PostID,
		CommentID:  comment.CommentID,
	})
	return comment.CommentID, commentRef, nil
}

// loadPost reads the post at ref and checks ref against the seeds stored
// in the post itself.
func (s *BlogService) loadPost(r repositories.AccountReader, ref pda.Ref) (*models.Post, error) {
	post, err := load[models.Post](r, ref.Address)
	if err != nil {
		return nil, err
	}
	if err := s.deriver.VerifyPost(ref, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *BlogService) now() int64 {
	return s.clock().Unix()
}

func (s *BlogService) publish(eventType events.EventType, data any) {
	if s.publisher == nil {
		return
	}
	if !s.publisher.PublishAsync(eventType, events.NewEvent(eventType, data)) {
		s.logger.Warn("notification dropped", "type", eventType)
	}
}

type record[T any] interface {
	*T
	UnmarshalBinary([]byte) error
}

// load decodes the record at addr as T
func load[T any, PT record[T]](r repositories.AccountReader, addr models.Pubkey) (*T, error) {
	acct, err := r.Get(addr)
	if err != nil {
		return nil, err
	}
	rec := PT(new(T))
	if err := rec.UnmarshalBinary(acct.Data); err != nil {
		if errors.Is(err, models.ErrDiscriminatorMismatch) {
			return nil, fmt.Errorf("%w: %w", ErrWrongAccountKind, err)
		}
		return nil, err
	}
	return (*T)(rec), nil
}

func writeRecord(txn repositories.AccountTxn, addr models.Pubkey, rec interface{ MarshalBinary() ([]byte, error) }) error {
	data, err := rec.MarshalBinary()
	if err != nil {
		return err
	}
	return txn.Write(addr, data)
}
