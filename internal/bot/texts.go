package bot

import (
	"fmt"
	"strings"

	"github.com/mrcodeacademy/enrollbot/internal/enroll"
)

// Menu button labels double as routing keys, so they must stay stable.
const (
	btnEnroll   = "📝 Enroll"
	btnSchedule = "📅 Schedule"
	btnAsk      = "❓ Ask a question"
	btnContacts = "📍 Contacts"

	btnConfirm    = "✅ Confirm"
	btnEdit       = "✏️ Edit"
	btnSharePhone = "📱 Share phone number"
)

const (
	msgGreeting = "Hi! I'm the enrollment assistant of MR Code Academy, a coding school for kids.\n" +
		"Use the menu below to enroll your child, check the schedule, or reach us."

	msgAskPhone = "Let's enroll your child! 📲\n" +
		"Share your phone number with the button below, or just type it."

	msgBadPhone = "That doesn't look like a phone number.\n" +
		"Please send at least 10 digits, for example: +1 555 123-45-67."

	msgForeignContact = "Please share your own contact, or type the number manually."

	msgAskName = "Got it! Now send the child's first and last name."

	msgBadName = "Please send both the first and last name, for example: Alex Smith."

	msgPickGroup = "Choose an age group:"

	msgGroupUnknown = "Please pick one of the groups on the keyboard below."

	msgConfirmHint = "Please use the buttons: " + btnConfirm + " or " + btnEdit + "."

	msgAllFull = "Unfortunately all groups are full right now. 😔\n" +
		"Message the director and we'll let you know as soon as seats open up."

	msgStoreError = "Something went wrong on our side. Please try again in a couple of minutes."

	msgAskQuestion = "The director will be happy to answer any question:"

	msgAskUnavailable = "Direct chat isn't set up yet. See Contacts for ways to reach us."

	msgUnknownText = "I didn't catch that. Use the menu below 👇"
)

func fmtGroupFull(group string) string {
	return fmt.Sprintf("The %s group has just filled up. 😔", group)
}

func fmtSchedule(remaining map[string]int) string {
	var b strings.Builder
	b.WriteString("Lesson schedule:\n")
	for _, g := range enroll.Groups {
		b.WriteString(fmt.Sprintf("\n%s — %s", g, enroll.Schedule[g]))
		if remaining != nil {
			if left, ok := remaining[g]; ok {
				if left > 0 {
					b.WriteString(fmt.Sprintf(" (%d seats left)", left))
				} else {
					b.WriteString(" (full)")
				}
			}
		}
	}
	return b.String()
}

func fmtGroupChoice(remaining map[string]int) string {
	var b strings.Builder
	b.WriteString(msgPickGroup)
	for _, g := range enroll.Groups {
		if remaining[g] <= 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("\n\n%s\n%s", g, enroll.Schedule[g]))
	}
	return b.String()
}

func fmtConfirm(child, group, phone string) string {
	return fmt.Sprintf(
		"Please double-check everything:\n\n👶 Child: %s\n👥 Group: %s\n📞 Phone: %s\n\nAll correct?",
		child, group, phone,
	)
}

func fmtEnrolled(child, group, phone string) string {
	return fmt.Sprintf(
		"🎉 Done! %s is enrolled in the %s group.\n%s\nWe'll call %s to confirm the details.",
		child, group, enroll.Schedule[group], phone,
	)
}

func fmtSeats(counts map[string][2]int) string {
	var b strings.Builder
	b.WriteString("Seats by group:")
	for _, g := range enroll.Groups {
		c, ok := counts[g]
		if !ok {
			continue
		}
		enrolled, limit := c[0], c[1]
		left := limit - enrolled
		if left < 0 {
			left = 0
		}
		b.WriteString(fmt.Sprintf("\n%s: %d/%d enrolled, %d left", g, enrolled, limit, left))
	}
	return b.String()
}
