package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/repair-commons/repaircafe/internal/model"
)

// message is a rendered email ready for the mailer.
type message struct {
	subject string
	text    string
	html    string
}

func eventWhen(event *model.Event) string {
	when := event.Date.Format("Monday, January 2, 2006")
	if event.StartTime != "" {
		when += ", " + event.StartTime
		if event.EndTime != "" {
			when += "–" + event.EndTime
		}
	}
	return when
}

func eventWhere(event *model.Event) string {
	if event.VenueName == "" {
		return ""
	}
	where := event.VenueName
	if event.VenueAddress != "" {
		where += ", " + event.VenueAddress
	}
	if event.VenueCity != "" {
		where += ", " + event.VenueCity
	}
	return where
}

func magicLinkMessage(org string, user *model.User, url string) message {
	text := fmt.Sprintf(
		"Hi %s,\n\nClick the link below to sign in to %s:\n\n%s\n\nThis link expires in 1 hour. If you didn't request it, you can ignore this email.\n",
		user.Name, org, url,
	)
	htmlBody := fmt.Sprintf(
		`<p>Hi %s,</p><p>Click the button below to sign in to %s:</p><p><a href="%s">Sign in</a></p><p>This link expires in 1 hour. If you didn't request it, you can ignore this email.</p>`,
		html.EscapeString(user.Name), html.EscapeString(org), html.EscapeString(url),
	)
	return message{
		subject: fmt.Sprintf("Sign in to %s", org),
		text:    text,
		html:    htmlBody,
	}
}

func registrationMessage(org string, reg *model.Registration, event *model.Event, manageURL string) message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", reg.UserName)
	if reg.Status == model.RegistrationWaitlisted {
		fmt.Fprintf(&b, "You're on the waitlist for %s. We'll email you if a spot opens up.\n\n", event.Title)
	} else {
		fmt.Fprintf(&b, "You're registered for %s!\n\n", event.Title)
	}
	fmt.Fprintf(&b, "When: %s\n", eventWhen(event))
	if where := eventWhere(event); where != "" {
		fmt.Fprintf(&b, "Where: %s\n", where)
	}
	if len(reg.Items) > 0 {
		b.WriteString("\nYour items:\n")
		for _, it := range reg.Items {
			fmt.Fprintf(&b, "  - %s: %s\n", it.Name, it.Problem)
		}
	}
	fmt.Fprintf(&b, "\nShow the QR code at the door to check in. Manage or cancel your registration here:\n%s\n", manageURL)

	subject := fmt.Sprintf("You're registered for %s", event.Title)
	if reg.Status == model.RegistrationWaitlisted {
		subject = fmt.Sprintf("You're on the waitlist for %s", event.Title)
	}

	var hb strings.Builder
	fmt.Fprintf(&hb, "<p>Hi %s,</p>", html.EscapeString(reg.UserName))
	if reg.Status == model.RegistrationWaitlisted {
		fmt.Fprintf(&hb, "<p>You're on the waitlist for <strong>%s</strong>. We'll email you if a spot opens up.</p>", html.EscapeString(event.Title))
	} else {
		fmt.Fprintf(&hb, "<p>You're registered for <strong>%s</strong>!</p>", html.EscapeString(event.Title))
	}
	fmt.Fprintf(&hb, "<p>When: %s</p>", html.EscapeString(eventWhen(event)))
	if where := eventWhere(event); where != "" {
		fmt.Fprintf(&hb, "<p>Where: %s</p>", html.EscapeString(where))
	}
	if len(reg.Items) > 0 {
		hb.WriteString("<p>Your items:</p><ul>")
		for _, it := range reg.Items {
			fmt.Fprintf(&hb, "<li>%s: %s</li>", html.EscapeString(it.Name), html.EscapeString(it.Problem))
		}
		hb.WriteString("</ul>")
	}
	fmt.Fprintf(&hb, `<p>Show the QR code at the door to check in. <a href="%s">Manage your registration</a></p>`, html.EscapeString(manageURL))

	return message{subject: subject, text: b.String(), html: hb.String()}
}

func waitlistPromotedMessage(reg *model.Registration, event *model.Event) message {
	text := fmt.Sprintf(
		"Hi %s,\n\nGood news: a spot opened up and you're now registered for %s.\n\nWhen: %s\n",
		reg.UserName, event.Title, eventWhen(event),
	)
	if where := eventWhere(event); where != "" {
		text += fmt.Sprintf("Where: %s\n", where)
	}
	htmlBody := fmt.Sprintf(
		"<p>Hi %s,</p><p>Good news: a spot opened up and you're now registered for <strong>%s</strong>.</p><p>When: %s</p>",
		html.EscapeString(reg.UserName), html.EscapeString(event.Title), html.EscapeString(eventWhen(event)),
	)
	return message{
		subject: fmt.Sprintf("You're off the waitlist for %s", event.Title),
		text:    text,
		html:    htmlBody,
	}
}

func itemClaimedMessage(item *model.Item, event *model.Event) message {
	fixer := item.FixerName
	if fixer == "" {
		fixer = "A fixer"
	}
	text := fmt.Sprintf(
		"Hi %s,\n\n%s has started working on your %s at %s. Head over to the repair tables if you'd like to watch and learn.\n",
		item.OwnerName, fixer, item.Name, event.Title,
	)
	htmlBody := fmt.Sprintf(
		"<p>Hi %s,</p><p><strong>%s</strong> has started working on your <strong>%s</strong> at %s. Head over to the repair tables if you'd like to watch and learn.</p>",
		html.EscapeString(item.OwnerName), html.EscapeString(fixer), html.EscapeString(item.Name), html.EscapeString(event.Title),
	)
	return message{
		subject: fmt.Sprintf("A fixer is working on your %s", item.Name),
		text:    text,
		html:    htmlBody,
	}
}

func itemCompletedMessage(item *model.Item, event *model.Event) message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nYour %s has been looked at during %s.\n\nResult: %s\n",
		item.OwnerName, item.Name, event.Title, item.Outcome.Label())
	if item.OutcomeNotes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", item.OutcomeNotes)
	}
	if item.RepairMethod != "" {
		fmt.Fprintf(&b, "What we did: %s\n", item.RepairMethod)
	}
	if item.PartsUsed != "" {
		fmt.Fprintf(&b, "Parts used: %s\n", item.PartsUsed)
	}
	b.WriteString("\nThanks for bringing it in, and for keeping things out of landfill.\n")

	var hb strings.Builder
	fmt.Fprintf(&hb, "<p>Hi %s,</p><p>Your <strong>%s</strong> has been looked at during %s.</p><p>Result: <strong>%s</strong></p>",
		html.EscapeString(item.OwnerName), html.EscapeString(item.Name), html.EscapeString(event.Title), html.EscapeString(item.Outcome.Label()))
	if item.OutcomeNotes != "" {
		fmt.Fprintf(&hb, "<p>Notes: %s</p>", html.EscapeString(item.OutcomeNotes))
	}
	if item.RepairMethod != "" {
		fmt.Fprintf(&hb, "<p>What we did: %s</p>", html.EscapeString(item.RepairMethod))
	}
	if item.PartsUsed != "" {
		fmt.Fprintf(&hb, "<p>Parts used: %s</p>", html.EscapeString(item.PartsUsed))
	}
	hb.WriteString("<p>Thanks for bringing it in, and for keeping things out of landfill.</p>")

	return message{
		subject: fmt.Sprintf("Repair update for your %s", item.Name),
		text:    b.String(),
		html:    hb.String(),
	}
}

func itemCommentMessage(ownerName, commenter string, item *model.Item, comment string) message {
	if commenter == "" {
		commenter = "Someone"
	}
	text := fmt.Sprintf(
		"Hi %s,\n\n%s commented on your %s:\n\n\"%s\"\n\nReply directly to this email to respond.\n",
		ownerName, commenter, item.Name, comment,
	)
	htmlBody := fmt.Sprintf(
		"<p>Hi %s,</p><p><strong>%s</strong> commented on your <strong>%s</strong>:</p><blockquote>%s</blockquote><p>Reply directly to this email to respond.</p>",
		html.EscapeString(ownerName), html.EscapeString(commenter), html.EscapeString(item.Name), html.EscapeString(comment),
	)
	return message{
		subject: fmt.Sprintf("New comment on your %s", item.Name),
		text:    text,
		html:    htmlBody,
	}
}

func reminderMessage(name string, event *model.Event, daysOut int, itemNames []string) message {
	lead := "in a week"
	if daysOut == 1 {
		lead = "tomorrow"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nJust a reminder that %s is %s.\n\nWhen: %s\n", name, event.Title, lead, eventWhen(event))
	if where := eventWhere(event); where != "" {
		fmt.Fprintf(&b, "Where: %s\n", where)
	}
	if len(itemNames) > 0 {
		fmt.Fprintf(&b, "\nDon't forget your items: %s\n", strings.Join(itemNames, ", "))
	}
	b.WriteString("\nSee you there!\n")

	var hb strings.Builder
	fmt.Fprintf(&hb, "<p>Hi %s,</p><p>Just a reminder that <strong>%s</strong> is %s.</p><p>When: %s</p>",
		html.EscapeString(name), html.EscapeString(event.Title), lead, html.EscapeString(eventWhen(event)))
	if where := eventWhere(event); where != "" {
		fmt.Fprintf(&hb, "<p>Where: %s</p>", html.EscapeString(where))
	}
	if len(itemNames) > 0 {
		fmt.Fprintf(&hb, "<p>Don't forget your items: %s</p>", html.EscapeString(strings.Join(itemNames, ", ")))
	}
	hb.WriteString("<p>See you there!</p>")

	return message{
		subject: fmt.Sprintf("Reminder: %s is %s", event.Title, lead),
		text:    b.String(),
		html:    hb.String(),
	}
}
