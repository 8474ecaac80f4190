package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/Dosada05/prompt-battle/logger"
	"github.com/Dosada05/prompt-battle/models"
	"github.com/Dosada05/prompt-battle/storage"
)

type memoryUploader struct {
	mu      sync.Mutex
	objects map[string]string
	failPut bool
}

func (u *memoryUploader) Upload(_ context.Context, key, _ string, r io.Reader) (*storage.UploadResult, error) {
	if u.failPut {
		return nil, errors.New("bucket unavailable")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = string(b)
	return &storage.UploadResult{Key: key}, nil
}

func (u *memoryUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	return nil
}

func (u *memoryUploader) GetPublicURL(key string) string { return "https://cdn.example.com/" + key }

func TestUploadAvatarReplacesPrevious(t *testing.T) {
	users := newFakeUserRepo()
	user := &models.User{Username: "alice", Email: "alice@example.com"}
	_ = users.Create(context.Background(), user)
	up := &memoryUploader{objects: map[string]string{}}
	svc := NewUserService(users, up, logger.NewNop())
	ctx := context.Background()

	first, err := svc.UploadAvatar(ctx, user.ID, "image/png", strings.NewReader("png-1"))
	if err != nil {
		t.Fatalf("UploadAvatar: %v", err)
	}
	if first.AvatarURL == nil || !strings.HasSuffix(*first.AvatarURL, ".png") {
		t.Fatalf("avatar url=%v", first.AvatarURL)
	}
	second, err := svc.UploadAvatar(ctx, user.ID, "image/jpeg", strings.NewReader("jpg-2"))
	if err != nil {
		t.Fatalf("UploadAvatar: %v", err)
	}
	if len(up.objects) != 1 {
		t.Fatalf("previous avatar should be deleted, objects=%v", up.objects)
	}
	if _, ok := up.objects[*second.AvatarKey]; !ok {
		t.Fatalf("new avatar missing from storage")
	}
}

func TestUploadAvatarFailures(t *testing.T) {
	users := newFakeUserRepo()
	user := &models.User{Username: "alice", Email: "alice@example.com"}
	_ = users.Create(context.Background(), user)
	ctx := context.Background()

	svc := NewUserService(users, &memoryUploader{objects: map[string]string{}}, logger.NewNop())
	if _, err := svc.UploadAvatar(ctx, user.ID, "text/plain", strings.NewReader("x")); KindOf(err) != KindValidation {
		t.Fatalf("bad content type: expected validation failure, got %v", err)
	}

	disabled := NewUserService(users, nil, logger.NewNop())
	if _, err := disabled.UploadAvatar(ctx, user.ID, "image/png", strings.NewReader("x")); KindOf(err) != KindValidation {
		t.Fatalf("disabled storage: expected validation failure, got %v", err)
	}

	failing := NewUserService(users, &memoryUploader{objects: map[string]string{}, failPut: true}, logger.NewNop())
	if _, err := failing.UploadAvatar(ctx, user.ID, "image/png", strings.NewReader("x")); KindOf(err) != KindUpstream {
		t.Fatalf("storage failure: expected upstream failure, got %v", err)
	}
}
