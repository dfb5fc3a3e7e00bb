// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package keystore unlocks PKCS#12 containers into a key/certificate pair
// with an explicit release lifecycle: once closed, a store fails every
// access deterministically rather than serving stale key material.
package keystore
