// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package authn provides the authentication model consumed by the
WS-Security callback handlers.

# Authentication Requests

An [Authentication] carries a principal and credentials. A request is built
with [NewUsernamePasswordToken] and passed to a [Manager]:

	req := authn.NewUsernamePasswordToken("alice", "secret")
	result, err := manager.Authenticate(ctx, req)
	if authn.IsAuthenticationError(err) {
	    // bad credentials, unknown user, disabled or locked account
	}

# Managers and Providers

[ProviderManager] delegates to an ordered list of [Provider]s. The first
provider that supports the request and succeeds wins. [DAOProvider]
authenticates against a [UserDetailsService] with a [PasswordEncoder] and
an optional [UserCache]:

	provider := authn.NewDAOProvider(store, authn.NewBcryptEncoder(0))
	manager := authn.NewProviderManager(nil, provider)

# User Stores and Caches

  - [InMemoryUserStore]: concurrency-safe map, for tests and small setups
  - [RedisUserCache]: caches loaded users in Redis with a TTL

# Security Context

The authentication result of a request is held in a [SecurityContext]
attached to the request's context.Context:

	ctx, sc := authn.NewContext(ctx)
	sc.SetAuthentication(result)
	...
	authn.FromContext(ctx).Authentication()
*/
package authn
