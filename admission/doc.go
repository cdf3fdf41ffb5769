// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package admission turns a scanned vote token into a recorded vote.

The pipeline runs in a fixed order and stops at the first failure:

 1. decode and decrypt the token (models.ErrMalformed)
 2. check the bucket secret against the rotator (models.ErrInvalidSignature)
 3. check the token's bucket is within the validity window (models.ErrExpired)
 4. look up the team (models.ErrUnknownProject)
 5. check the voter quota and insert, atomically (models.ErrQuotaExceeded)

Store failures surface as models.ErrPersistence. Nothing is retried.

Usage:

	ctrl := admission.New(codec, rotator, store, admission.Policy{
		ValidityWindow: cfg.ValidityWindow,
		MaxVotes:       cfg.MaxVotes,
		StoreTimeout:   cfg.StoreTimeout,
	})
	outcome, err := ctrl.Admit(ctx, token, nil)
*/
package admission
