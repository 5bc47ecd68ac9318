package chatbot

const intentPrompt = `Classify the intent of the user's question.
If the user wants to perform the action of borrowing a book, the question usually contains a verb
such as "borrow", "check out", "借", "借閱" or "借出", or simply names a book
(for example "borrow Harry Potter", "借哈利波特"). Answer 'BORROW'.
If the user is asking a general question about the library (for example "How do I borrow a book?",
"How long is the loan period?"), answer 'QA'.
If the question is neither, answer 'OTHER'.
Reply with a single word such as 'BORROW' or 'QA'.`

const titlePrompt = `Extract the title of the book from the user's question.
If the question contains a verb such as "borrow", "借", "借閱" or "借出", or directly mentions a book,
treat it as a borrow request and return the title.
If no title can be found, answer '無'.
Examples:
User: 'I want to borrow 哈利波特'
Title: '哈利波特'
User: '幫我借出書名是《LAB_Works》的書'
Title: 'LAB_Works'
User: '借一下童話故事集'
Title: '童話故事集'
Reply with the title only, without any additional words.`
