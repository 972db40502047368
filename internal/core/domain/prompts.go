package domain

// DefaultCondensePrompt rewrites a follow-up into a standalone question.
// Placeholders: the rendered conversation history, then the follow-up.
const DefaultCondensePrompt = `Given the following conversation and a follow up question, rephrase the follow up question to be a standalone question, in its original language.

Chat History:
%s

Follow Up Input: %s

Standalone question:`

// DefaultAnswerPrompt answers a question from retrieved context only.
// Placeholders: the retrieved context, then the standalone question.
const DefaultAnswerPrompt = `Use only the following pieces of context to answer the question at the end. If the answer is not in the context, say that you don't know; don't try to make up an answer.

%s

Question: %s
Helpful Answer:`
