package main

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/moneymap-app/moneymap-backend/infra/cloudrun"
	"github.com/moneymap-app/moneymap-backend/infra/docker"
	"github.com/moneymap-app/moneymap-backend/infra/firestore"
	"github.com/moneymap-app/moneymap-backend/infra/identity"
	"github.com/moneymap-app/moneymap-backend/infra/kms"
	"github.com/moneymap-app/moneymap-backend/infra/provider"
	"github.com/moneymap-app/moneymap-backend/infra/vertex"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		// set default provider with the correct project
		prov, err := provider.SetupDefaultProvider(ctx)
		if err != nil {
			return err
		}

		// enable identity service to allow using firebase
		ident, err := identity.SetupIdentity(ctx)
		if err != nil {
			return err
		}

		// enable firestore and create a database for the project
		err = firestore.SetupFirestore(ctx)
		if err != nil {
			return err
		}

		// enable vertex for the assistant
		err = vertex.SetupVertex(ctx, prov)
		if err != nil {
			return err
		}

		// key for access-token encryption at rest
		_, err = kms.SetupKMS(ctx, prov)
		if err != nil {
			return err
		}
		key, err := kms.CreateKey(ctx, prov, "moneymap", "plaid-token")
		if err != nil {
			return err
		}

		// create docker repo
		repo, err := docker.CreateCloudrunRepo(ctx)
		if err != nil {
			return err
		}

		_, err = cloudrun.SetupCloudRun(ctx, prov, key, ident, repo)
		if err != nil {
			return err
		}

		return nil
	})
}
