// Package discord delivers messages to Discord webhooks.
//
// Every send asks Discord to wait for the created message so the caller gets
// back its identity. Messages sent with a thread name to a forum webhook open
// a new post; the receipt's channel id is then the thread id that follow-up
// messages target. Attachments travel as multipart files[n] parts next to a
// payload_json document.
package discord
