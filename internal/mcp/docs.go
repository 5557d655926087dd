package mcp

const serverInstructions = `Implementation tracker gateway for a Salesforce custom CRM.

Tools operate on Implementation__c records and their Implementation_Hours__c
time entries. Records can be referenced by Name (for example "IMPL-0042") or
by 15/18-character Salesforce ID.

Guidance:
- Before calling log_hours, always present the valid project task list to the
  user and let them choose, even if they already named a task.
- Updates are permissioned: only the assigned CDE or an administrator can
  update a record.
- Creation operations are rate limited; on RATE_LIMITED errors, wait the
  indicated time before retrying.`
