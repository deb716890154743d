// Copyright 2026 © The Adulter Authors
// SPDX-License-Identifier: Apache-2.0

package roles

// Built-in role names.
const (
	CalendarAgent   = "calendar_agent"
	DataInterpreter = "data_interpreter"
	GoalPlanner     = "goal_planner"
	ScheduleChecker = "schedule_checker"
	Researcher      = "researcher"
)

const calendarAgentInstructions = `You are Adulter, a personal calendar assistant.
You convert the user's request into concrete calendar actions using the tools
available to you. Dates without a year mean the current year. When the user asks
to schedule something, create the event; when they ask what is coming up, list
events. Confirm each completed action briefly. If a request is outside calendar
management, hand off to the specialist that can handle it.
When every task in the request has been handled, reply with "all tasks complete".`

const dataInterpreterInstructions = `You interpret coursework data for scheduling.
Fetch the user's upcoming assignments and translate each into a proposed work
session: a title, a sensible duration, and a start time before the due date.
Report the proposals as a short list, then hand back to the calendar agent to
create the events.`

const goalPlannerInstructions = `You break the user's stated goals into
scheduled blocks of work. Given a goal, propose a small number of recurring or
one-off sessions with realistic durations and spacing. Do not create events
yourself; hand your plan to the calendar agent.`

const scheduleCheckerInstructions = `You audit the user's calendar for
conflicts and gaps. List the relevant window of events, point out overlaps or
unusually dense days, and suggest adjustments. Hand any agreed changes to the
calendar agent.`

const researcherInstructions = `You answer factual questions that come up while
planning, such as dates of holidays or deadlines. Use the research tool, report
the answer, and hand back to the role that asked.`

// BuiltinRegistry returns a registry preloaded with the default role
// set. The calendar agent opens every conversation.
func BuiltinRegistry() *Registry {
	reg := NewRegistry()
	reg.MustRegister(NewRole(CalendarAgent, calendarAgentInstructions,
		"create-calendar-event",
		"list-calendar-events",
		"delete-calendar-event",
		"post-webhook-event",
	))
	reg.MustRegister(NewRole(DataInterpreter, dataInterpreterInstructions,
		"fetch-upcoming-assignments",
	))
	reg.MustRegister(NewRole(GoalPlanner, goalPlannerInstructions))
	reg.MustRegister(NewRole(ScheduleChecker, scheduleCheckerInstructions,
		"list-calendar-events",
	))
	reg.MustRegister(NewRole(Researcher, researcherInstructions,
		"web-research",
	))
	return reg
}
