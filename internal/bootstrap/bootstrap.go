package bootstrap

import (
	"context"
	"log/slog"

	"cloud.google.com/go/firestore"
	gcpkms "cloud.google.com/go/kms/apiv1"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"firebase.google.com/go/v4/auth"

	vertexclient "github.com/moneymap-app/moneymap-backend/internal/client/vertex"
	"github.com/moneymap-app/moneymap-backend/internal/config"
	"github.com/moneymap-app/moneymap-backend/pkg/logger"
)

type Bootstrap struct {
	Log           *slog.Logger
	Firestore     *firestore.Client
	Firebase      *auth.Client
	SecretManager *secretmanager.Client
	KMS           *gcpkms.KeyManagementClient
	VertexAdapter *vertexclient.Adapter
}

func Run(cfg *config.Config) (*Bootstrap, error) {
	var err error
	applicationCtx := context.Background()
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel, logger.NewCloudRunHandler)
	bs.Firestore, err = InitFirestore(applicationCtx, cfg.ProjectID)
	if err != nil {
		return bs, err
	}
	bs.Firebase, err = InitFirebase(applicationCtx)
	if err != nil {
		return bs, err
	}
	bs.SecretManager, err = secretmanager.NewClient(applicationCtx)
	if err != nil {
		return bs, err
	}
	bs.KMS, err = gcpkms.NewKeyManagementClient(applicationCtx)
	if err != nil {
		return bs, err
	}
	bs.VertexAdapter, err = vertexclient.NewAdapter(applicationCtx, bs.Log, cfg.ProjectID, cfg.Region, cfg.VertexModel)
	if err != nil {
		return bs, err
	}

	return bs, nil
}

func (bs *Bootstrap) Close() {
	if bs.VertexAdapter != nil {
		bs.VertexAdapter.Close()
	}
	if bs.KMS != nil {
		bs.KMS.Close()
	}
	if bs.SecretManager != nil {
		bs.SecretManager.Close()
	}
	if bs.Firestore != nil {
		bs.Firestore.Close()
	}
}
