package ai

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are part of an automated pipeline to transcribe and summarize audio recordings."

func summaryPrompt(transcript, extraContext string) string {
	var b strings.Builder
	b.WriteString(`Please summarize the following transcript of my own audio recording, in markdown format.
Extra instructions:
- Answer using the same language as the transcript. For example if the transcript is in french, answer in french.
- List of topics: there should be a list of topics mentioned in the recording with the title "Topics".
- Action items: if and only if the transcript very specifically mentions things that should be done, highlight those points as a recap at the end of the summary with the title "Action Items".
- Given that this is an audio transcript that might be of poor quality, you might need to make some assumptions as to what was said. In those instances, take extra care to announce your assumptions clearly about what words were wrongly transcribed.
`)
	if strings.TrimSpace(extraContext) != "" {
		fmt.Fprintf(&b, "Extra context:\n%s\n", extraContext)
	}
	b.WriteString("Okay. Now the transcript follows:\n---\n")
	b.WriteString(transcript)
	return b.String()
}

func shortNamePrompt(summary string) string {
	var b strings.Builder
	b.WriteString(`- You should act as a function and only return a very short summary intended for file naming, max 6 words.
- The text should be synthetic, such as "Test microphone recording" rather than "Testing a recording with the microphone".
- The text needs to be valid under NTFS and EXT4.
- It should be written in natural language, such as "Microphone recording test" or "Experimenting with painting".
- Answer using the same language as the summary. For example if the summary is in french, answer in french.
Okay. Now the summary follows:
---
`)
	b.WriteString(summary)
	return b.String()
}
