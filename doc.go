/*
Package architext assembles the context sent to a language model out of small,
independently updatable pieces.

A context is a tree. The root is Messages, an ordered list of role-tagged
Message values. A Message is a Container, and a Container holds providers (see
package provider) and nested containers in render order:

	sys := provider.NewTexts("persona", "You are a helpful assistant.")
	files := provider.NewFiles()
	tools := provider.NewTools(lookup)

	msgs := architext.NewMessages(
		architext.System(sys, tools),
		architext.User(files, provider.NewTexts("question", "What does main.go do?")),
	)

# Lookup and moving

Providers are found by name anywhere in the tree. Names are not unique, so a
lookup returns a Group:

	msgs.Provider("persona").SetVisible(false)

	p, _ := architext.As[*provider.Texts](msgs.Provider("question"))
	p.Update("And util.go?")

Every provider and container occupies exactly one slot. Moving one means popping
it first, inserting an entry that is still held elsewhere fails with ErrOwnership:

	if p, ok := msgs.Pop("tools"); ok {
		user, _ := msgs.At(-1)
		_ = user.Insert(0, p)
	}

# Rendering

Render merges whatever the providers have cached and never produces.
RenderLatest first refreshes the providers whose staleness policy asks for it,
concurrently, and renders afterwards:

	out, err := msgs.RenderLatest(ctx)

Consecutive text blocks of a message are joined into one string, so a message
made of text only renders as {"role": "...", "content": "..."}. Images, tool
calls and tool results turn the content into a list of typed parts. Messages
that end up without any visible content are left out.

A tree is not safe for concurrent mutation. Providers are, so updating a
provider while another goroutine renders is fine.
*/
package architext
