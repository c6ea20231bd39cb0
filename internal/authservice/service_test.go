package authservice

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dmarchuk/gatekeep/internal/common"
	"github.com/dmarchuk/gatekeep/internal/logging"
	"github.com/dmarchuk/gatekeep/internal/models"
	"github.com/dmarchuk/gatekeep/internal/password"
	"github.com/dmarchuk/gatekeep/internal/rpc"
	"github.com/dmarchuk/gatekeep/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fakeUserClient stands in for the credential store.
type fakeUserClient struct {
	users map[string]*models.UserWithHash
}

func (f *fakeUserClient) GetByEmailForAuth(_ context.Context, email string) (*models.UserWithHash, error) {
	u, ok := f.users[email]
	if !ok {
		// What the credential store would put on the wire.
		return nil, &rpc.Envelope{Status: http.StatusNotFound, Message: "User with email " + email + " not found"}
	}
	return u, nil
}

func newTestService(t *testing.T) (*Service, *fakeUserClient) {
	t.Helper()

	hash, err := password.NewHasher(bcrypt.MinCost).Hash("Abc12345!")
	require.NoError(t, err)

	users := &fakeUserClient{users: map[string]*models.UserWithHash{
		"jane@x.com": {
			User:         models.User{ID: "id-1", Name: "Jane Doe", Email: "jane@x.com"},
			PasswordHash: hash,
		},
	}}

	tokens, err := token.NewManager("test-secret", time.Hour)
	require.NoError(t, err)

	return NewService(users, tokens, logging.NopLogger{}), users
}

func TestValidateUser_Success(t *testing.T) {
	svc, _ := newTestService(t)

	session, err := svc.ValidateUser(context.Background(), rpc.Credentials{Email: "jane@x.com", Password: "Abc12345!"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "id-1", session.User.ID)

	claims, err := svc.ValidateToken(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, "id-1", claims.Sub)
	assert.Equal(t, "jane@x.com", claims.Email)
	assert.Greater(t, claims.Exp, claims.Iat)
}

func TestValidateUser_WrongPassword(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ValidateUser(context.Background(), rpc.Credentials{Email: "jane@x.com", Password: "wrong"})
	var se *common.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.Equal(t, "Invalid credentials - password mismatch", se.Message)
}

func TestValidateUser_UnknownEmailPassesStoreErrorThrough(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ValidateUser(context.Background(), rpc.Credentials{Email: "nobody@x.com", Password: "pw"})
	var env *rpc.Envelope
	require.ErrorAs(t, err, &env)
	assert.Equal(t, http.StatusNotFound, env.Status)
}

func TestIssueToken_SkipsCredentialCheck(t *testing.T) {
	svc, users := newTestService(t)

	// No credential store lookup should happen at all.
	users.users = nil

	session, err := svc.IssueToken(context.Background(), models.User{ID: "id-9", Name: "New", Email: "new@x.com"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, "id-9", claims.Sub)
}

func TestIssueToken_RequiresID(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.IssueToken(context.Background(), models.User{Email: "new@x.com"})
	var se *common.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
}

func TestValidateToken_Failures(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ValidateToken(ctx, "")
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = svc.ValidateToken(ctx, "garbage")
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	expiring, err := token.NewManager("test-secret", time.Millisecond)
	require.NoError(t, err)
	shortLived := NewService(nil, expiring, logging.NopLogger{})
	session, err := shortLived.IssueToken(ctx, models.User{ID: "id-1"})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	// Same secret, so the long-lived service accepts the signature but
	// rejects the expiry.
	_, err = svc.ValidateToken(ctx, session.Token)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}
