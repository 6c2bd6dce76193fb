// Package prekey manages the persisted one-time pre-key pool of the local
// account.
//
// Each operation unlocks the account file, restores the account, applies the
// change (generate, publish, consume) and seals it back, so the on-disk state
// always reflects which keys are published and which were consumed.
package prekey
