package store

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/moneymap-app/moneymap-backend/internal/errs"
)

// tokenCipher encrypts access tokens before they reach Secret Manager.
type tokenCipher interface {
	KmsEncrypt(ctx context.Context, plaintext string) (string, error)
	KmsDecrypt(ctx context.Context, ciphertext string) (string, error)
}

// Secret path: projects/{project}/secrets/plaid-access-token-{uid}/versions/latest
type secretStore struct {
	client    *secretmanager.Client
	cipher    tokenCipher
	projectID string
	prefix    string
}

func NewSecretStore(client *secretmanager.Client, cipher tokenCipher, projectID string) *secretStore {
	return &secretStore{
		client:    client,
		cipher:    cipher,
		projectID: projectID,
		prefix:    "plaid-access-token",
	}
}

func (s *secretStore) secretID(uid string) string {
	return fmt.Sprintf("%s-%s", s.prefix, uid)
}

func (s *secretStore) secretName(uid string) string {
	return fmt.Sprintf("projects/%s/secrets/%s", s.projectID, s.secretID(uid))
}

// SetToken replaces the stored token. The old secret is deleted before the
// new one is created so a concurrent reader sees either the previous token
// or the new one, never a partially updated version chain.
func (s *secretStore) SetToken(ctx context.Context, uid, token string) error {
	if err := s.DeleteToken(ctx, uid); err != nil {
		return err
	}

	_, err := s.client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
		Parent:   fmt.Sprintf("projects/%s", s.projectID),
		SecretId: s.secretID(uid),
		Secret: &secretmanagerpb.Secret{
			Replication: &secretmanagerpb.Replication{
				Replication: &secretmanagerpb.Replication_Automatic_{Automatic: &secretmanagerpb.Replication_Automatic{}},
			},
		},
	})
	if err != nil {
		return errs.NewSecretStoreError("failed to create token secret", err)
	}

	ciphertext, err := s.cipher.KmsEncrypt(ctx, token)
	if err != nil {
		return errs.NewSecretStoreError("failed to encrypt token", err)
	}

	_, err = s.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent: s.secretName(uid),
		Payload: &secretmanagerpb.SecretPayload{
			Data: []byte(ciphertext),
		},
	})
	if err != nil {
		return errs.NewSecretStoreError("failed to store token", err)
	}
	return nil
}

// GetToken returns the stored token, or "" when none is stored.
func (s *secretStore) GetToken(ctx context.Context, uid string) (string, error) {
	res, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("%s/versions/latest", s.secretName(uid)),
	})
	if status.Code(err) == codes.NotFound {
		return "", nil
	}
	if err != nil {
		return "", errs.NewSecretStoreError("failed to read token", err)
	}

	token, err := s.cipher.KmsDecrypt(ctx, string(res.Payload.Data))
	if err != nil {
		return "", errs.NewSecretStoreError("failed to decrypt token", err)
	}
	return token, nil
}

// DeleteToken removes the stored token. Deleting a token that does not
// exist is not an error.
func (s *secretStore) DeleteToken(ctx context.Context, uid string) error {
	err := s.client.DeleteSecret(ctx, &secretmanagerpb.DeleteSecretRequest{
		Name: s.secretName(uid),
	})
	if err != nil && status.Code(err) != codes.NotFound {
		return errs.NewSecretStoreError("failed to delete token secret", err)
	}
	return nil
}
