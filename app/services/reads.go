package services

import (
	"context"

	"blogledger/app/models"
	"blogledger/app/pda"
	"blogledger/app/repositories"
)

func (s *BlogService) GetBlog(ctx context.Context, author models.Pubkey) (*models.Blog, pda.Ref, error) {
	ref, err := s.deriver.Blog(author)
	if err != nil {
		return nil, pda.Ref{}, err
	}
	blog, err := view[models.Blog](ctx, s.store, ref.Address)
	return blog, ref, err
}

func (s *BlogService) GetProfile(ctx context.Context, author models.Pubkey) (*models.Profile, pda.Ref, error) {
	ref, err := s.deriver.Profile(author)
	if err != nil {
		return nil, pda.Ref{}, err
	}
	profile, err := view[models.Profile](ctx, s.store, ref.Address)
	return profile, ref, err
}

// GetPost reads a post by its seeds. A deleted post reads as ErrNotFound.
func (s *BlogService) GetPost(ctx context.Context, author models.Pubkey, postID uint64) (*models.Post, pda.Ref, error) {
	ref, err := s.deriver.Post(author, postID)
	if err != nil {
		return nil, pda.Ref{}, err
	}
	post, err := view[models.Post](ctx, s.store, ref.Address)
	return post, ref, err
}

func (s *BlogService) GetComment(
	ctx context.Context,
	postAuthor models.Pubkey,
	postID, commentID uint64,
) (*models.Comment, pda.Ref, error) {
	ref, err := s.deriver.Comment(postAuthor, postID, commentID)
	if err != nil {
		return nil, pda.Ref{}, err
	}
	comment, err := view[models.Comment](ctx, s.store, ref.Address)
	return comment, ref, err
}

// GetAccount reads whatever record lives at addr and dispatches on its
// discriminator.
func (s *BlogService) GetAccount(ctx context.Context, addr models.Pubkey) (models.Kind, any, error) {
	var kind models.Kind
	var rec any
	err := s.store.View(ctx, func(r repositories.AccountReader) error {
		acct, err := r.Get(addr)
		if err != nil {
			return err
		}
		kind, rec, err = models.Decode(acct.Data)
		return err
	})
	if err != nil {
		return models.KindUnknown, nil, err
	}
	return kind, rec, nil
}

func view[T any, PT record[T]](ctx context.Context, store repositories.AccountStore, addr models.Pubkey) (*T, error) {
	var out *T
	err := store.View(ctx, func(r repositories.AccountReader) error {
		rec, err := load[T, PT](r, addr)
		if err != nil {
			return err
		}
		out = rec
		return nil
	})
	return out, err
}
