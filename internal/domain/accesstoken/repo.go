package accesstoken

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const collection = "bookingAccessTokens"

type Repo struct {
	fs *firestore.Client
}

func NewRepo(fs *firestore.Client) *Repo {
	return &Repo{fs: fs}
}

func (r *Repo) Save(ctx context.Context, t Token) error {
	_, err := r.fs.Collection(collection).Doc(t.ID).Create(ctx, t)
	return err
}

func (r *Repo) Get(ctx context.Context, id string) (*Token, error) {
	doc, err := r.fs.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	if !doc.Exists() {
		return nil, ErrTokenNotFound
	}
	var t Token
	if err := doc.DataTo(&t); err != nil {
		return nil, err
	}
	return &t, nil
}
