// Package contracts holds recorded payloads of the two external services
// litesync talks to: the content feed and the ledger gateway. Client tests
// replay them through httptest servers so a change to either wire format
// breaks a test instead of a scheduled run.
package contracts

// JSONFeedContract is a JSON Feed 1.1 document as served by the blog.
// Items are not in publication order and one shares a timestamp with another.
const JSONFeedContract = `{
  "version": "https://jsonfeed.org/version/1.1",
  "title": "Field Notes",
  "home_page_url": "https://blog.example.com/",
  "feed_url": "https://blog.example.com/feed.json",
  "items": [
    {
      "id": "https://blog.example.com/posts/tidepools",
      "url": "https://blog.example.com/posts/tidepools",
      "title": "Tidepools",
      "content_html": "<p>Low tide at dawn.</p>",
      "date_published": "2024-03-02T08:30:00+01:00"
    },
    {
      "id": "https://blog.example.com/posts/first-light",
      "url": "https://blog.example.com/posts/first-light",
      "title": "First Light",
      "content_html": "<p>The observatory opens.</p>",
      "date_published": "2024-03-01T06:00:00Z"
    },
    {
      "id": "https://blog.example.com/posts/second-light",
      "url": "https://blog.example.com/posts/second-light",
      "title": "Second Light",
      "content_html": "<p>Clouds, mostly.</p>",
      "date_published": "2024-03-01T06:00:00Z"
    }
  ]
}`

// RSSContract is the same blog served as RSS 2.0.
const RSSContract = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Field Notes</title>
    <link>https://blog.example.com/</link>
    <item>
      <title>First Light</title>
      <link>https://blog.example.com/posts/first-light</link>
      <guid>https://blog.example.com/posts/first-light</guid>
      <description>The observatory opens.</description>
      <pubDate>Fri, 01 Mar 2024 06:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

// NoteRequestContract is the body the gateway accepts on
// POST /v1/characters/{character}/notes.
const NoteRequestContract = `{
  "metadata": {
    "title": "First Light",
    "content": "<p>The observatory opens.</p>",
    "sources": ["liteSync"],
    "date_published": "2024-03-01T06:00:00Z"
  }
}`

// NoteResponseContract is the gateway's confirmation of a posted note.
const NoteResponseContract = `{
  "noteId": 318,
  "transactionHash": "0x6a1f0c2d9e8b7a6f5e4d3c2b1a0f9e8d7c6b5a4f3e2d1c0b9a8f7e6d5c4b3a2f"
}`

// PendingResponseContract is returned when the gateway accepted the request
// but the transaction has not been mined yet. It carries no note id.
const PendingResponseContract = `{
  "transactionHash": "0x6a1f0c2d9e8b7a6f5e4d3c2b1a0f9e8d7c6b5a4f3e2d1c0b9a8f7e6d5c4b3a2f",
  "status": "pending"
}`
