// Package httpapp provides the HTTP server for Newsboard.
//
//	@title			Newsboard API
//	@version		1.0
//	@description	Articles, comments, topics and users for a news aggregator.
//	@description
//	@description	Every error response is a JSON object with a single `msg` field.
//	@description	List endpoints take `limit` (default 10) and `p`, a zero-based page number;
//	@description	the row offset is `limit * p`.
//
//	@contact.name	Newsboard
//	@license.name	MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@tag.name			Articles
//	@tag.description	Browse, post, vote on and delete articles.
//
//	@tag.name			Comments
//	@tag.description	Comments on articles.
//
//	@tag.name			Topics
//	@tag.description	Article topics.
//
//	@tag.name			Users
//	@tag.description	Registered users.
//
//	@tag.name			Meta
//	@tag.description	Endpoint listing and health.
package httpapp
