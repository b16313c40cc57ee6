package gym

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Catalog is the read side of gyms, packages and variants used by bookings.
type Catalog interface {
	GetGym(ctx context.Context, gymID string) (*Gym, error)
	GetPackage(ctx context.Context, gymID, packageID string) (*Package, error)
	GetVariant(ctx context.Context, gymID, packageID, variantID string) (*Variant, error)
}

type Repo struct {
	fs *firestore.Client
}

func NewRepo(fs *firestore.Client) *Repo {
	return &Repo{fs: fs}
}

func (r *Repo) gymRef(gymID string) *firestore.DocumentRef {
	return r.fs.Collection("gyms").Doc(gymID)
}

func (r *Repo) GetGym(ctx context.Context, gymID string) (*Gym, error) {
	var g Gym
	if err := getDoc(ctx, r.gymRef(gymID), &g); err != nil {
		return nil, fmt.Errorf("gym %s: %w", gymID, err)
	}
	if g.ID == "" {
		g.ID = gymID
	}
	return &g, nil
}

func (r *Repo) GetPackage(ctx context.Context, gymID, packageID string) (*Package, error) {
	var p Package
	ref := r.gymRef(gymID).Collection("packages").Doc(packageID)
	if err := getDoc(ctx, ref, &p); err != nil {
		return nil, fmt.Errorf("package %s: %w", packageID, err)
	}
	if p.ID == "" {
		p.ID = packageID
	}
	if p.GymID == "" {
		p.GymID = gymID
	}
	return &p, nil
}

func (r *Repo) GetVariant(ctx context.Context, gymID, packageID, variantID string) (*Variant, error) {
	var v Variant
	ref := r.gymRef(gymID).Collection("packages").Doc(packageID).Collection("variants").Doc(variantID)
	if err := getDoc(ctx, ref, &v); err != nil {
		return nil, fmt.Errorf("variant %s: %w", variantID, err)
	}
	if v.ID == "" {
		v.ID = variantID
	}
	if v.PackageID == "" {
		v.PackageID = packageID
	}
	return &v, nil
}

func getDoc(ctx context.Context, ref *firestore.DocumentRef, dst any) error {
	doc, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return err
	}
	if !doc.Exists() {
		return ErrNotFound
	}
	return doc.DataTo(dst)
}
