// Package prompts builds the few-shot prompts sent for each analysis step.
package prompts

import (
	"fmt"

	"github.com/harun/cheetah/pkg/chain"
)

// DefaultDomain is the expertise the prompts are written for.
const DefaultDomain = "software engineering"

const shorthandInstruction = `Use bullet points and write in shorthand. For example, "O(n log n) due to sorting" is preferred to "The time complexity of the implementation is O(n log n) due to the sorting."`

// Generator renders prompts for a domain.
type Generator struct {
	Domain string
}

// NewGenerator creates a generator; an empty domain falls back to DefaultDomain.
func NewGenerator(domain string) *Generator {
	if domain == "" {
		domain = DefaultDomain
	}
	return &Generator{Domain: domain}
}

func (g *Generator) SystemMessage() string {
	return fmt.Sprintf("You are a %s expert.", g.Domain)
}

// ExtractQuestion asks the baseline model to pull the last question out of a transcript.
func (g *Generator) ExtractQuestion(transcript string) chain.ModelInput {
	prompt := fmt.Sprintf(`Extract the last problem or question posed by the interviewer during a %s interview. State it as an instruction. If the question is about something the candidate did, restate it in a general way.

[transcript begins]
If you want to improve the query performance of multiple columns or a group of columns in a given table. Cool. And is it considered a cluster index or no cluster index? definitely be a non-clustered index. For sure. All right, great. So next question. What's the difference between "where" and "having"? Oh, that's an interesting one.
[transcript ends]
Is context needed here: Yes
Context: queries, databases, performance
Extracted question: Describe the difference between "where" and "having" clauses in SQL, focusing on performance.
Answer in code: No

[transcript begins]
Are you familiar with the traceroute command? Yes I am. Okay, so how does that work behind the scenes?
[transcript ends]
Is context needed here: No
Extracted question: How does the traceroute command work?
Answer in code: No

[transcript begins]
Write a function that takes 3 arguments. The first argument is a list of numbers that is guaranteed to be sorted. The remaining two arguments, a and b, are the coefficients of the function f(x) = a*x + b. Your function should compute f(x) for every number in the first argument, and return a list of those values, also sorted.
[transcript ends]
Is context needed here: Yes
Context: C++
Extracted question: C++ function that takes a vector of sorted numbers; and coefficients (a, b) of the function f(x) = a*x + b. It should compute f(x) for each input number, and return a sorted vector.
Answer in code: Yes

[transcript begins]
%s
[transcript ends]
Is context needed here:`, g.Domain, transcript)

	return chain.ChatPromptPair{System: g.SystemMessage(), User: prompt, Tier: chain.ChatTierBaseline}
}

// AnswerQuestion answers a fresh question.
func (g *Generator) AnswerQuestion(question string) chain.ModelInput {
	prompt := fmt.Sprintf(`You are a %s expert. %s

Example 1:
Question: Should I use "where" or "having" to find employee first names that appear more than 250 times?
Are follow up questions needed here: Yes
Follow up: Will this query use aggregation?
Intermediate answer: Yes, count(first_name)
Follow up: Does "where" or "having" filter rows after aggregation?
Intermediate answer: having
Final answer:
• Where: filters rows before aggregation
• Having: filters rows after aggregation
• Example SQL: having count(first_name) > 250

Example 2:
Question: How does the traceroute command work?
Are follow up questions needed here: No
Final answer:
• Traces the path an IP packet takes across networks
• Starting from 1, increments the TTL field in the IP header
• The returned ICMP Time Exceeded packets are used to build a list of routers

Question: %s
`, g.Domain, shorthandInstruction, question)

	return chain.ChatPromptPair{System: g.SystemMessage(), User: prompt, Tier: chain.ChatTierPremium}
}

// RefineAnswer continues from a previous draft answer.
func (g *Generator) RefineAnswer(question, previousAnswer string) chain.ModelInput {
	prompt := fmt.Sprintf(`You are a %s expert. Refine the partial answer. %s

Example 1:
Question: Should I use "where" or "having" to find employee first names that appear more than 250 times?
Partial answer:
• Having: filters rows after aggregation
Are follow up questions needed here: Yes
Follow up: Will this query use aggregation?
Intermediate answer: Yes, count(first_name)
Follow up: Does "where" or "having" filter rows after aggregation?
Intermediate answer: having
Final answer:
• Where: filters rows before aggregation
• Having: filters rows after aggregation
• Example SQL: having count(first_name) > 250

Example 2:
Question: How does the traceroute command work?
Partial answer:
• Traces the path an IP packet takes across networks
• Starting from 1, increments the TTL field in the IP header
Are follow up questions needed here: No
Final answer:
• Traces the path an IP packet takes across networks
• Starting from 1, increments the TTL field in the IP header
• The returned ICMP Time Exceeded packets are used to build a list of routers

Question: %s
Partial answer:
%s
`, g.Domain, shorthandInstruction, question, previousAnswer)

	return chain.ChatPromptPair{System: g.SystemMessage(), User: prompt, Tier: chain.ChatTierPremium}
}

// ExplainHighlight asks for depth on the marked part of a previous answer.
func (g *Generator) ExplainHighlight(question, highlightedAnswer string) chain.ModelInput {
	prompt := fmt.Sprintf(`Question: %s

You previously provided this answer, and I have highlighted part of it:
%s

Explain the highlighted part of your previous answer in much greater depth. %s`, question, highlightedAnswer, shorthandInstruction)

	return chain.ChatPromptPair{System: g.SystemMessage(), User: prompt, Tier: chain.ChatTierPremium}
}

func (g *Generator) WriteCode(task string) chain.ModelInput {
	prompt := fmt.Sprintf(`Write pseudocode to accomplish this task: %s

Start with a comment outlining opportunities for optimization and potential pitfalls. Assume only standard libraries are available, unless specified. Don't explain, just give me the code.`, task)

	return chain.ChatPromptPair{System: g.SystemMessage(), User: prompt, Tier: chain.ChatTierPremium}
}

// AnalyzeBrowserCode reviews captured code and logs. An empty task asks for a general approach.
func (g *Generator) AnalyzeBrowserCode(code, logs, task string) chain.ModelInput {
	prefix := "Briefly describe how an efficient solution can be achieved."
	if task != "" {
		prefix = "Prompt: " + task
	}

	prompt := fmt.Sprintf(`%s

Code:
%s

Output:
%s

If the prompt is irrelevant, you may disregard it. You may suggest edits to the existing code. If appropriate, include a brief discussion of complexity. %s`, prefix, code, logs, shorthandInstruction)

	return chain.ChatPromptPair{System: g.SystemMessage(), User: prompt, Tier: chain.ChatTierPremium}
}
