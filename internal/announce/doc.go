// Package announce renders item descriptions into announcements and
// dispatches them to the webhook selected by the item's category.
//
// Two media modes exist. Inline mode appends links to the header image,
// first screenshot, and first trailer to the main message. Thread mode opens
// a forum post for the item, then sends up to ten screenshots as attachments
// and the trailer links as follow-ups inside that post. Only the main send
// decides whether an item counts as announced; follow-up failures are logged.
package announce
