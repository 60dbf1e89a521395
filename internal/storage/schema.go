package storage

// migration is one linear, append-only schema step. Migrations are
// applied in slice order inside Open, each inside its own transaction;
// the applied name is recorded in schema_migrations so a later Open
// against the same file only applies what's new. This replaces
// golang-migrate (see DESIGN.md) with the minimal subset of its
// behavior spec.md §4.1 actually asks for.
type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{
		name: "0001_init",
		sql: `
CREATE TABLE users (
	id INTEGER PRIMARY KEY,
	screen_name TEXT NOT NULL DEFAULT '',
	avatar_large TEXT NOT NULL DEFAULT '',
	profile_image_url TEXT NOT NULL DEFAULT '',
	domain TEXT NOT NULL DEFAULT '',
	following INTEGER NOT NULL DEFAULT 0,
	follow_me INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE posts (
	id INTEGER PRIMARY KEY,
	mblogid TEXT NOT NULL DEFAULT '',
	uid INTEGER NOT NULL REFERENCES users(id),
	text TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL DEFAULT 0,
	favorited INTEGER NOT NULL DEFAULT 0,
	retweeted_id INTEGER REFERENCES posts(id),
	pic_ids TEXT NOT NULL DEFAULT '[]',
	pic_infos TEXT NOT NULL DEFAULT '',
	mix_media_info TEXT NOT NULL DEFAULT '',
	url_struct TEXT NOT NULL DEFAULT '',
	region_name TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL DEFAULT '',
	attitudes_count INTEGER NOT NULL DEFAULT 0,
	comments_count INTEGER NOT NULL DEFAULT 0,
	reposts_count INTEGER NOT NULL DEFAULT 0,
	deleted INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX idx_posts_uid ON posts(uid);
CREATE INDEX idx_posts_created_at ON posts(created_at);
CREATE INDEX idx_posts_retweeted_id ON posts(retweeted_id);

CREATE TABLE favorited_posts (
	id INTEGER PRIMARY KEY REFERENCES posts(id),
	unfavorited INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE pictures (
	url TEXT PRIMARY KEY,
	picture_id TEXT NOT NULL DEFAULT '',
	definition INTEGER NOT NULL DEFAULT 0,
	path TEXT,
	post_id INTEGER REFERENCES posts(id),
	user_id INTEGER REFERENCES users(id)
);
CREATE INDEX idx_pictures_picture_id ON pictures(picture_id);
CREATE INDEX idx_pictures_post_id ON pictures(post_id);
CREATE INDEX idx_pictures_user_id ON pictures(user_id);

CREATE TABLE videos (
	url TEXT PRIMARY KEY,
	path TEXT,
	post_id INTEGER NOT NULL REFERENCES posts(id)
);
CREATE INDEX idx_videos_post_id ON videos(post_id);
`,
	},
	{
		// FTS over post text with a trigram tokenizer, for CJK substring
		// search (spec.md invariant 5). Triggers mirror INSERT/UPDATE/
		// DELETE of posts.text into the index.
		name: "0002_posts_fts",
		sql: `
CREATE VIRTUAL TABLE posts_fts USING fts5(
	text,
	content='posts',
	content_rowid='id',
	tokenize='trigram'
);

CREATE TRIGGER posts_ai AFTER INSERT ON posts BEGIN
	INSERT INTO posts_fts(rowid, text) VALUES (new.id, new.text);
END;

CREATE TRIGGER posts_ad AFTER DELETE ON posts BEGIN
	INSERT INTO posts_fts(posts_fts, rowid, text) VALUES ('delete', old.id, old.text);
END;

CREATE TRIGGER posts_au AFTER UPDATE OF text ON posts BEGIN
	INSERT INTO posts_fts(posts_fts, rowid, text) VALUES ('delete', old.id, old.text);
	INSERT INTO posts_fts(rowid, text) VALUES (new.id, new.text);
END;
`,
	},
}
