// Package ouro parses layered-prompt markup and recursively resolves nested
// sub-prompts into a single linear document before submission to a
// text-generation service.
//
// A document is an ordered sequence of elements written with three tags:
//
//	<Prompt>You are a careful editor.</Prompt>
//	<Text>Here is a draft:</Text>
//	<Resolve prompt="Write a one-line title for:">the draft below</Resolve>
//
// Untagged text between tags becomes a Text element. When a document has
// no Prompt, the first non-blank line of its leading Text element becomes
// the Prompt.
//
// # Basic Usage
//
//	client := ouro.MustNew(ouro.WithCompletionService(
//	    ouro.NewOpenAICompletionService(ouro.OpenAIConfigFromEnv()),
//	))
//	doc, err := client.CreateDocument(markup)
//	if err != nil {
//	    return err
//	}
//	if err := doc.Resolve(ctx, nil); err != nil {
//	    return err
//	}
//	fmt.Println(doc.String())
//
// # Resolution
//
// Every pending Resolve element is resolved by a sub-document: a clone of
// everything before it, with the Prompt replaced by the element's prompt
// attribute and the element's body appended as a trailing Text element.
// The sub-document is itself resolved and submitted, and the generated
// text becomes the element's output. Resolved elements render as their
// output; pending ones render as nothing.
//
// Resolution options:
//
//	doc.Resolve(ctx, &ouro.ResolveOptions{
//	    SubmitResultForCompletion: true,    // submit the whole document afterwards
//	    NewElementName:            "reply", // label of the appended element
//	    HaltAfterFirstComplete:    false,   // stop after one directive
//	    Concurrency:               4,       // resolve siblings in parallel
//	})
//
// # Frontmatter
//
// A markup file may begin with YAML frontmatter carrying completion
// options for every submission the document makes:
//
//	---
//	name: title-writer
//	completion:
//	  model: gpt-4o-mini
//	  temperature: 0.2
//	---
//	<Prompt>...</Prompt>
//
// # Storage
//
// Documents can be kept in a versioned DocumentStorage (memory, filesystem
// or postgres driver) and resolved in place with Client.ResolveStored.
//
// # Errors
//
// Failures are classified with errors.Is against ErrMalformedMarkup,
// ErrNoPromptCandidate, ErrCompletion, ErrResolve, ErrFrontmatter and
// ErrDocumentNotFound. Errors returned by a CompletionService pass through
// resolution unchanged.
package ouro
