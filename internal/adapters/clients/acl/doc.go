// Package acl maps the remote posts API onto domain quotes.
//
// Post DTOs never leave this package, and neither do transport errors:
//   - 404 becomes [domain.ErrNotFound]
//   - 400 and 422 become [domain.ErrValidation]
//   - everything else, including an open circuit, becomes [domain.ErrUnavailable]
package acl
